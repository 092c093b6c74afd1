package pages

import "github.com/ternarybob/conduit-e2e/internal/selector"

var settingsSelectors = selector.MustRegistry(selector.TestIDs(
	"settings-form",
	"settings-title",
	"image-input",
	"username-input",
	"bio-input",
	"email-input",
	"password-input",
	"update-button",
	"logout-button",
)...)

// SettingsPage covers /settings
type SettingsPage struct {
	Page[*SettingsPage]
}

// NewSettingsPage creates the settings page object
func NewSettingsPage(deps Deps) *SettingsPage {
	p := &SettingsPage{}
	p.Page = newPage(deps, settingsSelectors, p)
	return p
}

func (p *SettingsPage) Visit() *SettingsPage {
	p.deps.T.Helper()
	return p.Page.Visit("/settings")
}

func (p *SettingsPage) Logout() *SettingsPage {
	p.deps.T.Helper()
	p.click(p.locate("logout-button"))
	return p
}

// Update fills <name>-input for each entry and submits the settings form
func (p *SettingsPage) Update(fields map[string]string) *SettingsPage {
	p.deps.T.Helper()
	for name, value := range fields {
		p.fill(p.locate(name+"-input"), value)
	}
	p.click(p.locate("update-button"))
	return p
}

func (p *SettingsPage) ShouldBeOnSettingsPage() *SettingsPage {
	p.deps.T.Helper()
	p.check("on settings page", all(p.urlIncludes("/settings"), p.visible(p.locate("settings-form"))))
	return p
}
