package selector

import "github.com/JakeFAU/orgextract/internal/extractor"

// Page-structure tables. Order encodes confidence and is never changed at
// runtime; markup drift is absorbed by appending strategies here.
var (
	// ReadyMarker signals that a page is usable.
	ReadyMarker = extractor.NewChain(extractor.FieldReadyMarker,
		extractor.CSS("body"),
	)

	LoginUsername = extractor.NewChain(extractor.FieldLoginUsername,
		extractor.CSS("#username"),
		extractor.CSS("input[name='session_key']"),
	)

	LoginPassword = extractor.NewChain(extractor.FieldLoginPassword,
		extractor.CSS("#password"),
		extractor.CSS("input[name='session_password']"),
	)

	LoginSubmit = extractor.NewChain(extractor.FieldLoginSubmit,
		extractor.XPath("//button[@type='submit']"),
		extractor.CSS("button.btn__primary--large"),
	)

	// Challenge matches interstitials that block an automated login.
	Challenge = extractor.NewChain(extractor.FieldChallenge,
		extractor.CSS("iframe[src*='captcha']"),
		extractor.CSS("iframe[title*='captcha']"),
		extractor.CSS("iframe[title*='CAPTCHA']"),
		extractor.CSS("#captcha-internal"),
		extractor.CSS("input[name='pin']"),
	)

	CompanyName = extractor.NewChain(extractor.FieldName,
		extractor.CSS("h1.org-top-card-summary__title"),
		extractor.CSS(".org-top-card-summary__title"),
		extractor.CSS("h1.organization-outlet__name"),
		extractor.CSS(".organization-outlet__name"),
		extractor.CSS("h1[data-test-id='org-name']"),
		extractor.CSS(".org-top-card-summary-info-list__info-item h1"),
		extractor.CSS(".pv-text-details__company-name"),
		extractor.CSS("h1"),
		extractor.CSS(".t-24.t-black.t-normal"),
	)

	Description = extractor.NewChain(extractor.FieldDescription,
		extractor.CSS(".org-about-company-module__company-description p"),
		extractor.CSS(".break-words p"),
		extractor.CSS(".org-about-us-organization-description__text"),
		extractor.CSS(".break-words"),
		extractor.CSS(".org-page-details__definition-text"),
		extractor.CSS("[data-test-id='about-us__description']"),
		extractor.CSS(".organization-about__text"),
		extractor.CSS(".org-about-company-module p"),
		extractor.CSS(".artdeco-card p"),
		extractor.CSS(".section-info p"),
	)

	// DetailDefinitions lists the definition cells of the about page. All
	// strategies are unioned before classification.
	DetailDefinitions = extractor.NewChain(extractor.FieldDetails,
		extractor.CSS(".org-page-details__definition-text"),
		extractor.CSS(".org-about-company-module__company-details dd"),
		extractor.CSS(".org-about-us-company-module__company-details dd"),
		extractor.CSS(".artdeco-card dd"),
		extractor.CSS(".section-info dd"),
	)

	Industry = extractor.NewChain(extractor.FieldIndustry,
		extractor.XPath("//dt[contains(text(), 'Industry')]/following-sibling::dd[1]"),
	)

	CompanySize = extractor.NewChain(extractor.FieldCompanySize,
		extractor.XPath("//dt[contains(text(), 'Company size')]/following-sibling::dd[1]"),
	)

	Headquarters = extractor.NewChain(extractor.FieldHeadquarters,
		extractor.XPath("//dt[contains(text(), 'Headquarters')]/following-sibling::dd[1]"),
	)

	Website = extractor.NewChain(extractor.FieldWebsite,
		extractor.XPath("//dt[contains(text(), 'Website')]/following-sibling::dd[1]//a").WithAttr("href"),
		extractor.XPath("//dt[contains(text(), 'Website')]/following-sibling::dd[1]"),
	)

	JobTitles = extractor.NewChain(extractor.FieldJobTitle,
		extractor.CSS(".job-card-list__title a"),
		extractor.CSS(".job-card-container__link"),
		extractor.CSS(".job-card-container__primary-description"),
		extractor.CSS("a[data-tracking-control-name*='job']"),
		extractor.CSS(".job-card-container .job-card-list__title"),
		extractor.CSS("[data-test-id='job-title']"),
		extractor.CSS(".jobs-search-results-list .job-card-container__link"),
		extractor.CSS(".artdeco-entity-lockup__title a"),
		extractor.CSS(".job-card-container .artdeco-entity-lockup__title"),
	)

	PeopleContainers = extractor.NewChain(extractor.FieldPeopleCard,
		extractor.CSS(".org-people-profile-card"),
		extractor.CSS(".artdeco-entity-lockup"),
		extractor.CSS("[data-test-id='people-card']"),
		extractor.CSS(".org-people-profile-card__profile-info"),
		extractor.CSS(".artdeco-entity-lockup__content"),
	)

	PersonName = extractor.NewChain(extractor.FieldPersonName,
		extractor.CSS(".artdeco-entity-lockup__title a"),
		extractor.CSS(".org-people-profile-card__profile-title a"),
		extractor.CSS("a[data-test-id='people-card-name']"),
		extractor.CSS(".artdeco-entity-lockup__title"),
		extractor.CSS("h3 a"),
		extractor.CSS(".profile-link"),
	)

	// ProfileLink recovers a profile URL when the name node is not a link.
	ProfileLink = extractor.NewChain(extractor.FieldPersonName,
		extractor.CSS("a[href*='/in/']").WithAttr("href"),
	)

	PersonTitle = extractor.NewChain(extractor.FieldPersonTitle,
		extractor.CSS(".artdeco-entity-lockup__subtitle"),
		extractor.CSS(".org-people-profile-card__profile-subtitle"),
		extractor.CSS("[data-test-id='people-card-subtitle']"),
		extractor.CSS(".artdeco-entity-lockup__content .t-14"),
		extractor.CSS(".profile-subtitle"),
	)
)
