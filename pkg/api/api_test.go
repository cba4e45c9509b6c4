package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-stacked-content/pkg/config"
	"github.com/goliatone/go-stacked-content/pkg/elementtypes"
	"github.com/goliatone/go-stacked-content/pkg/stacked"
	"github.com/stretchr/testify/require"
)

const (
	prefix  = "/api/stackedcontent"
	heroID  = "5d2b6c3a-7f40-4e8b-9c1d-0a6e3f2b8c01"
	quoteID = "5d2b6c3a-7f40-4e8b-9c1d-0a6e3f2b8c02"
)

const definitions = `
element_types:
  - id: ` + quoteID + `
    alias: quote
    name: Quote
    icon: icon-quote
    sort_order: 2
    properties:
      - alias: text
        name: Text
        editor: textarea
  - id: ` + heroID + `
    alias: hero
    name: Hero
    icon: icon-picture
    sort_order: 1
    groups: [Content, Settings]
    properties:
      - alias: title
        name: Title
        editor: textbox
        group: Content
        mandatory: true
      - alias: dark
        name: Dark
        editor: boolean
        group: Settings
`

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	module, err := stacked.NewModule(stacked.ModuleOptions{Config: config.Defaults(), Partials: fstest.MapFS{}})
	require.NoError(t, err)
	require.NoError(t, module.Seed(context.Background(), fstest.MapFS{"types.yaml": {Data: []byte(definitions)}}))

	h, err := New(Dependencies{
		ElementTypes:  module.ElementTypes(),
		Commands:      module.Commands(),
		Converter:     module.Converter(),
		Validator:     module.Container().Validator,
		DefaultLocale: "en",
	})
	require.NoError(t, err)
	return NewApp(h, prefix)
}

func do(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, prefix+target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestListElementTypes(t *testing.T) {
	app := newApp(t)

	resp, body := do(t, app, http.MethodGet, "/element-types", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	var got []elementtypes.Summary
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 2)
	require.Equal(t, "hero", got[0].Alias)
	require.Equal(t, []string{"Content", "Settings"}, got[0].Tabs)
	require.Equal(t, "quote", got[1].Alias)
}

func TestElementTypesByIDsKeepsRequestOrder(t *testing.T) {
	app := newApp(t)

	resp, body := do(t, app, http.MethodGet, "/element-types/by-ids?ids="+quoteID+","+heroID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []elementtypes.Detail
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 2)
	require.Equal(t, quoteID, got[0].ID.String())
	require.Equal(t, heroID, got[1].ID.String())

	resp, body = do(t, app, http.MethodGet, "/element-types/by-ids?ids=nope", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody ErrorBody
	require.NoError(t, json.Unmarshal(body, &errBody))
	require.Equal(t, "INVALID_ID", errBody.Error.TextCode)
	require.NotEmpty(t, errBody.Error.RequestID)
}

func TestElementTypesByAliasesAndIcons(t *testing.T) {
	app := newApp(t)

	resp, body := do(t, app, http.MethodGet, "/element-types/by-aliases?aliases=QUOTE", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var byAlias []elementtypes.Summary
	require.NoError(t, json.Unmarshal(body, &byAlias))
	require.Len(t, byAlias, 1)
	require.Equal(t, "quote", byAlias[0].Alias)

	resp, body = do(t, app, http.MethodGet, "/element-types/icons?ids="+heroID+"&ids="+quoteID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var icons map[string]string
	require.NoError(t, json.Unmarshal(body, &icons))
	require.Equal(t, map[string]string{heroID: "icon-picture", quoteID: "icon-quote"}, icons)
}

func TestScaffoldByID(t *testing.T) {
	app := newApp(t)

	resp, body := do(t, app, http.MethodGet, "/element-types/"+heroID+"/scaffold?tabs=Content", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Tabs []struct {
			Name       string `json:"name"`
			Properties []struct {
				Alias string `json:"alias"`
			} `json:"properties"`
		} `json:"tabs"`
		Record map[string]any `json:"record"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got.Tabs, 1)
	require.Equal(t, "Content", got.Tabs[0].Name)
	require.Equal(t, "title", got.Tabs[0].Properties[0].Alias)
	require.Equal(t, heroID, got.Record["elementTypeRef"])

	resp, _ = do(t, app, http.MethodGet, "/element-types/5d2b6c3a-7f40-4e8b-9c1d-0a6e3f2b8cff/scaffold", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBlueprintAndScaffoldFromIt(t *testing.T) {
	app := newApp(t)

	payload := `{"item":{"name":"Welcome hero","elementTypeRef":"alias:hero","title":"Welcome","unknown":"x"},"userId":12}`
	resp, body := do(t, app, http.MethodPost, "/blueprints", payload, map[string]string{fiber.HeaderAcceptLanguage: "es-ES,es;q=0.9"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var note struct {
		Header  string `json:"header"`
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(body, &note))
	require.Equal(t, "success", note.Type)
	require.Equal(t, "Plantilla creada", note.Header)

	resp, body = do(t, app, http.MethodGet, "/element-types/by-ids?ids="+heroID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []elementtypes.Detail
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got[0].Blueprints, 1)

	var blueprintID string
	for id, name := range got[0].Blueprints {
		blueprintID = id
		require.Equal(t, "Welcome hero", name)
	}

	resp, body = do(t, app, http.MethodGet, "/blueprints/"+blueprintID+"/scaffold", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var scaffold struct {
		Record map[string]any `json:"record"`
	}
	require.NoError(t, json.Unmarshal(body, &scaffold))
	require.Equal(t, "Welcome", scaffold.Record["title"])
	require.NotContains(t, scaffold.Record, "unknown")
}

func TestCreateBlueprintRejectsBadInput(t *testing.T) {
	app := newApp(t)

	resp, _ := do(t, app, http.MethodPost, "/blueprints", `{"userId":1}`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, app, http.MethodPost, "/blueprints", `{"item":{"key":"not-a-uuid","elementTypeRef":"alias:hero"}}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var errBody ErrorBody
	require.NoError(t, json.Unmarshal(body, &errBody))
	require.Equal(t, "key", errBody.Error.Validation[0].Field)
}

func TestConvertAndValidate(t *testing.T) {
	app := newApp(t)

	value := `[{"elementTypeRef":"alias:hero","title":"","stale":"x"}]`
	resp, body := do(t, app, http.MethodPost, "/convert?direction=storage", value, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var converted struct {
		Value string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(body, &converted))
	require.Contains(t, converted.Value, heroID)
	require.NotContains(t, converted.Value, "stale")

	resp, _ = do(t, app, http.MethodPost, "/convert?direction=sideways", value, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodPost, "/validate", value, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var validated struct {
		Valid   bool `json:"valid"`
		Results []struct {
			Message string `json:"message"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(body, &validated))
	require.False(t, validated.Valid)
	require.Equal(t, "Item 1 'Title' cannot be empty", validated.Results[0].Message)

	resp, _ = do(t, app, http.MethodPost, "/validate", `{not json`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := newApp(t)

	resp, _ := do(t, app, http.MethodGet, "/element-types", "", map[string]string{HeaderRequestID: "req-1"})
	require.Equal(t, "req-1", resp.Header.Get(HeaderRequestID))
}
