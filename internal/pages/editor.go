package pages

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/intercept"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// Network aliases registered by the editor page
const (
	AliasCreateArticle = "createRequest"
	AliasUpdateArticle = "updateRequest"
)

var editorSelectors = selector.MustRegistry(selector.TestIDs(
	"article-title-input",
	"article-description-input",
	"article-body-input",
	"tag-input",
	"tag-list",
	"publish-button",
	"editor-form",
	"error-messages",
	"loading",
	"preview-button",
	"preview-content",
	"edit-button",
	"character-count",
	"word-count",
	"auto-save-indicator",
	"remove-tag",
)...)

// EditorPage covers /editor and /editor/<slug>
type EditorPage struct {
	Page[*EditorPage]
}

// NewEditorPage creates the editor page object
func NewEditorPage(deps Deps) *EditorPage {
	p := &EditorPage{}
	p.Page = newPage(deps, editorSelectors, p)
	return p
}

func tagLocator(tag string) selector.Locator {
	return selector.TestID("tag-" + tag).Locate()
}

func (p *EditorPage) Visit() *EditorPage {
	p.deps.T.Helper()
	return p.Page.Visit("/editor")
}

func (p *EditorPage) VisitEdit(slug string) *EditorPage {
	p.deps.T.Helper()
	return p.Page.Visit("/editor/" + slug)
}

func (p *EditorPage) FillTitle(title string) *EditorPage {
	p.deps.T.Helper()
	p.fill(p.locate("article-title-input"), title)
	return p
}

func (p *EditorPage) FillDescription(description string) *EditorPage {
	p.deps.T.Helper()
	p.fill(p.locate("article-description-input"), description)
	return p
}

func (p *EditorPage) FillBody(body string) *EditorPage {
	p.deps.T.Helper()
	p.fill(p.locate("article-body-input"), body)
	return p
}

// AddTag types a tag and confirms it with Enter, keeping existing tags
func (p *EditorPage) AddTag(tag string) *EditorPage {
	p.deps.T.Helper()
	loc := p.locate("tag-input")
	p.add(loc, tag)
	p.press(loc, browser.KeyEnter)
	return p
}

func (p *EditorPage) AddTags(tags ...string) *EditorPage {
	p.deps.T.Helper()
	for _, tag := range tags {
		p.AddTag(tag)
	}
	return p
}

func (p *EditorPage) RemoveTag(tag string) *EditorPage {
	p.deps.T.Helper()
	p.click(p.locate("remove-tag").Within(tagLocator(tag)))
	return p
}

func (p *EditorPage) ClearForm() *EditorPage {
	p.deps.T.Helper()
	for _, name := range []string{"article-title-input", "article-description-input", "article-body-input", "tag-input"} {
		p.clear(p.locate(name))
	}
	return p
}

func (p *EditorPage) FillCompleteForm(title, description, body string, tags ...string) *EditorPage {
	p.deps.T.Helper()
	return p.FillTitle(title).
		FillDescription(description).
		FillBody(body).
		AddTags(tags...)
}

func (p *EditorPage) Publish() *EditorPage {
	p.deps.T.Helper()
	p.click(p.locate("publish-button"))
	return p
}

// PublishWithKeyboard submits with Ctrl+Enter from the body field
func (p *EditorPage) PublishWithKeyboard() *EditorPage {
	p.deps.T.Helper()
	p.press(p.locate("article-body-input"), browser.KeyCtrlEnter)
	return p
}

func (p *EditorPage) Preview() *EditorPage {
	p.deps.T.Helper()
	p.click(p.locate("preview-button"))
	return p
}

func (p *EditorPage) BackToEdit() *EditorPage {
	p.deps.T.Helper()
	p.click(p.locate("edit-button"))
	return p
}

func (p *EditorPage) SubmitEmptyForm() *EditorPage {
	p.deps.T.Helper()
	return p.Publish()
}

func (p *EditorPage) SubmitPartialForm(title, description string) *EditorPage {
	p.deps.T.Helper()
	return p.FillTitle(title).FillDescription(description).Publish()
}

func (p *EditorPage) ShouldBeOnEditorPage() *EditorPage {
	p.deps.T.Helper()
	return p.ShouldIncludeURL("/editor")
}

func (p *EditorPage) ShouldBeOnEditPage(slug string) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldIncludeURL("/editor/" + slug)
}

func (p *EditorPage) ShouldHaveEmptyForm() *EditorPage {
	p.deps.T.Helper()
	p.check("empty editor form", all(
		p.value(p.locate("article-title-input"), ""),
		p.value(p.locate("article-description-input"), ""),
		p.value(p.locate("article-body-input"), ""),
		p.value(p.locate("tag-input"), ""),
	))
	return p
}

func (p *EditorPage) ShouldHaveFilledForm(title, description, body string) *EditorPage {
	p.deps.T.Helper()
	p.check("editor form values", all(
		p.value(p.locate("article-title-input"), title),
		p.value(p.locate("article-description-input"), description),
		p.value(p.locate("article-body-input"), body),
	))
	return p
}

func (p *EditorPage) ShouldHaveTitle(title string) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldHaveValue("article-title-input", title)
}

func (p *EditorPage) ShouldHaveDescription(description string) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldHaveValue("article-description-input", description)
}

func (p *EditorPage) ShouldHaveBody(body string) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldHaveValue("article-body-input", body)
}

func (p *EditorPage) ShouldHaveTag(tag string) *EditorPage {
	p.deps.T.Helper()
	p.check("tag "+tag, p.exists(tagLocator(tag)))
	return p
}

func (p *EditorPage) ShouldNotHaveTag(tag string) *EditorPage {
	p.deps.T.Helper()
	p.check("no tag "+tag, p.absent(tagLocator(tag)))
	return p
}

func (p *EditorPage) ShouldHaveTags(tags ...string) *EditorPage {
	p.deps.T.Helper()
	for _, tag := range tags {
		p.ShouldHaveTag(tag)
	}
	return p
}

func (p *EditorPage) ShouldHaveTagCount(n int) *EditorPage {
	p.deps.T.Helper()
	tags := selector.CSS("tags", selector.TestIDPrefixQuery("tag-")).Locate().Within(p.locate("tag-list"))
	p.check("tag count", p.count(tags, n))
	return p
}

func (p *EditorPage) ShouldShowErrorMessage(message string) *EditorPage {
	p.deps.T.Helper()
	loc := p.locate("error-messages")
	p.check("error message "+message, all(p.visible(loc), p.contains(loc, message)))
	return p
}

func (p *EditorPage) ShouldNotShowErrorMessage() *EditorPage {
	p.deps.T.Helper()
	return p.ShouldNotExist("error-messages")
}

// ShouldHaveValidationError checks the [data-cy=<field>-error] message
func (p *EditorPage) ShouldHaveValidationError(field, message string) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldContain(field+"-error", message)
}

func (p *EditorPage) ShouldBeLoading() *EditorPage {
	p.deps.T.Helper()
	p.check("loading", all(
		p.visible(p.locate("loading")),
		p.disabled(p.locate("publish-button"), true),
	))
	return p
}

func (p *EditorPage) ShouldNotBeLoading() *EditorPage {
	p.deps.T.Helper()
	p.check("not loading", all(
		p.absent(p.locate("loading")),
		p.disabled(p.locate("publish-button"), false),
	))
	return p
}

func (p *EditorPage) ShouldRedirectToArticle(slug string) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldIncludeURL("/article/" + slug)
}

func (p *EditorPage) ShouldHaveCharacterCount(n int) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldContain("character-count", strconv.Itoa(n))
}

func (p *EditorPage) ShouldHaveWordCount(n int) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldContain("word-count", strconv.Itoa(n))
}

func (p *EditorPage) ShouldHavePreview() *EditorPage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("preview-content")
}

func (p *EditorPage) ShouldNotHavePreview() *EditorPage {
	p.deps.T.Helper()
	return p.ShouldNotExist("preview-content")
}

func (p *EditorPage) ShouldHavePreviewContent(content string) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldContain("preview-content", content)
}

// ShouldHaveMarkdownPreview checks the preview holds rendered markdown elements
func (p *EditorPage) ShouldHaveMarkdownPreview() *EditorPage {
	p.deps.T.Helper()
	p.check("markdown preview", p.rendersMarkdown(p.locate("preview-content")))
	return p
}

func (p *EditorPage) ShouldHaveRequiredFields() *EditorPage {
	p.deps.T.Helper()
	p.check("required fields", all(
		p.attr(p.locate("article-title-input"), "required", ""),
		p.attr(p.locate("article-description-input"), "required", ""),
		p.attr(p.locate("article-body-input"), "required", ""),
	))
	return p
}

func (p *EditorPage) ShouldHaveCorrectPlaceholders() *EditorPage {
	p.deps.T.Helper()
	p.check("placeholders", all(
		p.attr(p.locate("article-title-input"), "placeholder", "Article Title"),
		p.attr(p.locate("article-description-input"), "placeholder", "What's this article about?"),
		p.attr(p.locate("article-body-input"), "placeholder", "Write your article (in markdown)"),
		p.attr(p.locate("tag-input"), "placeholder", "Enter tags"),
	))
	return p
}

func (p *EditorPage) ShouldHaveCorrectInputTypes() *EditorPage {
	p.deps.T.Helper()
	p.check("input types", all(
		p.attr(p.locate("article-title-input"), "type", "text"),
		p.attr(p.locate("article-description-input"), "type", "text"),
		p.tagName(p.locate("article-body-input"), "TEXTAREA"),
		p.attr(p.locate("tag-input"), "type", "text"),
	))
	return p
}

// ShouldHaveMaxLength checks maxlength on [data-cy=<field>-input]
func (p *EditorPage) ShouldHaveMaxLength(field string, max int) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldHaveAttr(field+"-input", "maxlength", strconv.Itoa(max))
}

// ShouldHaveMinLength checks minlength on [data-cy=<field>-input]
func (p *EditorPage) ShouldHaveMinLength(field string, min int) *EditorPage {
	p.deps.T.Helper()
	return p.ShouldHaveAttr(field+"-input", "minlength", strconv.Itoa(min))
}

func (p *EditorPage) ShouldHaveValidFormStructure() *EditorPage {
	p.deps.T.Helper()
	form := p.locate("editor-form")
	var preds []predicate
	for _, name := range []string{"article-title-input", "article-description-input", "article-body-input", "tag-input", "publish-button"} {
		preds = append(preds, p.exists(p.locate(name).Within(form)))
	}
	p.check("editor form structure", all(preds...))
	return p
}

func (p *EditorPage) ShouldHaveAccessibleLabels() *EditorPage {
	p.deps.T.Helper()
	var preds []predicate
	for _, name := range []string{"article-title-input", "article-description-input", "article-body-input", "tag-input"} {
		preds = append(preds, p.anyAttr(p.locate(name), "aria-label", "id"))
	}
	p.check("accessible labels", all(preds...))
	return p
}

func (p *EditorPage) ShouldHaveAccessibleErrors() *EditorPage {
	p.deps.T.Helper()
	return p.ShouldHaveAttr("error-messages", "role", "alert")
}

func (p *EditorPage) ShouldShowAutoSaveIndicator() *EditorPage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("auto-save-indicator")
}

// ExpectCreateRequest registers @createRequest; call before publishing
func (p *EditorPage) ExpectCreateRequest() *EditorPage {
	p.deps.T.Helper()
	p.expect(AliasCreateArticle, intercept.Route{Method: http.MethodPost, Pattern: "**/articles"})
	return p
}

// ExpectUpdateRequest registers @updateRequest; call before publishing
func (p *EditorPage) ExpectUpdateRequest() *EditorPage {
	p.deps.T.Helper()
	p.expect(AliasUpdateArticle, intercept.Route{Method: http.MethodPut, Pattern: "**/articles/*"})
	return p
}

func (p *EditorPage) ShouldReceiveCreateResponse() *EditorPage {
	p.deps.T.Helper()
	p.awaitStatus(AliasCreateArticle, http.StatusOK)
	return p
}

func (p *EditorPage) ShouldReceiveUpdateResponse() *EditorPage {
	p.deps.T.Helper()
	p.awaitStatus(AliasUpdateArticle, http.StatusOK)
	return p
}

// ShouldReceiveErrorResponse waits for @createRequest with the given status
func (p *EditorPage) ShouldReceiveErrorResponse(status int) *EditorPage {
	p.deps.T.Helper()
	p.awaitStatus(AliasCreateArticle, status)
	return p
}

// ShouldNotHaveSentCreateRequest checks @createRequest never fired
func (p *EditorPage) ShouldNotHaveSentCreateRequest() *EditorPage {
	p.deps.T.Helper()
	p.notSent(AliasCreateArticle)
	return p
}

// CreatedSlug waits for @createRequest and returns the new article's slug
func (p *EditorPage) CreatedSlug() string {
	p.deps.T.Helper()
	call := p.awaitStatus(AliasCreateArticle, http.StatusOK)
	if call == nil {
		return ""
	}
	slug, err := call.ResponseQuery(p.deps.Ctx, ".article.slug")
	if err != nil {
		p.fail("read created slug", err)
		return ""
	}
	s, _ := slug.(string)
	return s
}
