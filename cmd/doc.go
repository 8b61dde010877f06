// Package cmd defines the orgextract command line.
//
// Architecture overview:
//   - Session: one headless Chrome tab (internal/browser/headless) logs in once through
//     internal/session. The session state machine gates every later navigation; a failed
//     login ends the run before any target is opened.
//   - Navigation: internal/navigator paces every page transition with human-like delays
//     and a per-host rate limit, and treats readiness timeouts as non-fatal.
//   - Extraction: internal/aggregator visits the profile, about, jobs and people sections of
//     each target in a fixed order. Selector chains (internal/selector) and text heuristics
//     (internal/patterns) resolve each field; anything unresolved becomes a sentinel.
//   - Persistence & fanout: records go to the configured sinks (CSV, JSON lines, Google
//     Sheets, Postgres). Profile pages can be archived to a BlobStore (local/GCS) and a
//     record.extracted event can be published to Pub/Sub.
//   - Configuration & plumbing: Viper populates config from env/files (.env via godotenv);
//     zap provides structured logging; Prometheus metrics are served on /metrics when enabled.
//
// Quick checklist:
//   - Set ORGEXTRACT_AUTH_EMAIL and ORGEXTRACT_AUTH_PASSWORD (or put them in .env).
//   - Run: orgextract extract https://www.linkedin.com/company/acme/ --config config.yaml
//   - Or list targets one per line in a file: orgextract extract --targets-file targets.txt
package cmd
