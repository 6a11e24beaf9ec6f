package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// RouteLister returns the routes registered on a server, e.g. (*echo.Echo).Routes.
type RouteLister func() []*echo.Route

// Generator builds an OpenAPI 3.0 spec from the registered echo routes.
// Known routes carry summaries and request/response schemas from
// operationDocs; any other route is listed with a generated summary.
type Generator struct {
	routes  RouteLister
	version string
	baseURL string
}

// NewGenerator creates a new OpenAPI spec generator.
func NewGenerator(routes RouteLister, version, baseURL string) *Generator {
	return &Generator{routes: routes, version: version, baseURL: baseURL}
}

// operationDoc describes one documented operation.
type operationDoc struct {
	summary  string
	tag      string
	request  string // component schema name, empty when there is no body
	response string // component schema name of the 200 body
	query    []queryParam
}

type queryParam struct {
	name string
	typ  string
	desc string
}

var operationDocs = map[string]operationDoc{
	"GET /health":    {summary: "Liveness check", tag: "operations"},
	"GET /health/db": {summary: "Database connectivity check", tag: "operations"},
	"GET /metrics":   {summary: "Prometheus metrics exposition", tag: "operations"},

	"GET /api/v1/conditions": {
		summary: "List the supported vascular conditions", tag: "coding",
		response: "ConditionList",
	},
	"POST /api/v1/coding/suggestions": {
		summary: "Suggest codes for every selected condition", tag: "coding",
		request: "SuggestionRequest", response: "SuggestionResponse",
		query: []queryParam{{"fhir", "boolean", "Include FHIR CodeableConcepts"}},
	},
	"POST /api/v1/coding/icd10": {
		summary: "Suggest ICD-10-CM codes for one condition", tag: "coding",
		request: "SingleConditionRequest", response: "CodeSuggestionList",
	},
	"POST /api/v1/coding/cpt": {
		summary: "Suggest CPT codes for one condition", tag: "coding",
		request: "SingleConditionRequest", response: "CodeSuggestionList",
	},
	"POST /api/v1/coding/em-level": {
		summary: "Suggest the E&M visit level for one condition", tag: "coding",
		request: "SingleConditionRequest", response: "CodeSuggestion",
	},
	"POST /api/v1/coding/rvu": {
		summary: "Sum relative value units", tag: "coding",
		request: "RVURequest", response: "RVUResponse",
	},
	"GET /api/v1/coding/catalog/icd10": {
		summary: "List catalog diagnosis codes", tag: "catalog",
		query: catalogListParams,
	},
	"GET /api/v1/coding/catalog/cpt": {
		summary: "List catalog procedure codes", tag: "catalog",
		query: catalogListParams,
	},
	"GET /api/v1/coding/catalog/icd10/:code": {summary: "Read a catalog diagnosis code", tag: "catalog"},
	"GET /api/v1/coding/catalog/cpt/:code":   {summary: "Read a catalog procedure code", tag: "catalog"},

	"GET /api/v1/scoring/:condition": {summary: "List scoring systems for a condition", tag: "scoring"},
	"POST /api/v1/scoring/:condition": {
		summary: "Calculate clinical scores from interview answers", tag: "scoring",
		request: "ScoringRequest", response: "ScoringResponse",
	},

	"GET /fhir/CodeSystem/$lookup": {
		summary: "FHIR CodeSystem $lookup", tag: "fhir",
		response: "Parameters", query: codeSystemParams,
	},
	"POST /fhir/CodeSystem/$lookup": {
		summary: "FHIR CodeSystem $lookup", tag: "fhir",
		request: "Parameters", response: "Parameters",
	},
	"GET /fhir/CodeSystem/$validate-code": {
		summary: "FHIR CodeSystem $validate-code", tag: "fhir",
		response: "Parameters", query: codeSystemParams,
	},
	"POST /fhir/CodeSystem/$validate-code": {
		summary: "FHIR CodeSystem $validate-code", tag: "fhir",
		request: "Parameters", response: "Parameters",
	},
}

var documentedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

var catalogListParams = []queryParam{
	{"category", "string", "Only codes in this category"},
	{"_count", "integer", "Number of results per page"},
	{"_offset", "integer", "Starting index for results"},
}

var codeSystemParams = []queryParam{
	{"system", "string", "Code system URI"},
	{"code", "string", "Code to look up"},
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]interface{})
	tagSet := make(map[string]bool)

	for _, r := range g.sortedRoutes() {
		doc, ok := operationDocs[r.Method+" "+r.Path]
		if !ok {
			doc = operationDoc{
				summary: r.Method + " " + r.Path,
				tag:     defaultTag(r.Path),
			}
		}
		tagSet[doc.tag] = true

		oasPath, pathParams := convertPath(r.Path)
		item, _ := paths[oasPath].(map[string]interface{})
		if item == nil {
			item = make(map[string]interface{})
			paths[oasPath] = item
		}
		item[strings.ToLower(r.Method)] = g.buildOperation(r, doc, pathParams)
	}

	tags := make([]map[string]string, 0, len(tagSet))
	for _, name := range sortedKeys(tagSet) {
		tags = append(tags, map[string]string{"name": name})
	}

	spec := map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Vascular Intake Coding API",
			"version":     g.version,
			"description": "ICD-10-CM, CPT and E&M code suggestions from vascular intake interviews",
		},
		"paths": paths,
		"tags":  tags,
		"components": map[string]interface{}{
			"schemas": buildComponentSchemas(),
		},
	}
	if g.baseURL != "" {
		spec["servers"] = []map[string]string{{"url": g.baseURL}}
	}
	return spec
}

func (g *Generator) sortedRoutes() []*echo.Route {
	var routes []*echo.Route
	if g.routes != nil {
		for _, r := range g.routes() {
			// Group middleware registers not-found catch-alls under a
			// pseudo method; those are not part of the API.
			if documentedMethods[r.Method] {
				routes = append(routes, r)
			}
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

func (g *Generator) buildOperation(r *echo.Route, doc operationDoc, pathParams []string) map[string]interface{} {
	op := map[string]interface{}{
		"summary":     doc.summary,
		"operationId": operationID(r.Method, r.Path),
		"tags":        []string{doc.tag},
	}

	params := make([]map[string]interface{}, 0, len(pathParams)+len(doc.query))
	for _, name := range pathParams {
		params = append(params, map[string]interface{}{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]string{"type": "string"},
		})
	}
	for _, q := range doc.query {
		params = append(params, map[string]interface{}{
			"name":        q.name,
			"in":          "query",
			"schema":      map[string]string{"type": q.typ},
			"description": q.desc,
		})
	}
	if len(params) > 0 {
		op["parameters"] = params
	}

	if doc.request != "" {
		op["requestBody"] = map[string]interface{}{
			"required": true,
			"content":  jsonContent(doc.request),
		}
	}

	ok := map[string]interface{}{"description": "OK"}
	if doc.response != "" {
		ok["content"] = jsonContent(doc.response)
	}
	responses := map[string]interface{}{"200": ok}
	if doc.request != "" || len(pathParams) > 0 {
		responses["400"] = map[string]interface{}{"description": "Invalid request"}
	}
	if strings.HasPrefix(r.Path, "/fhir/") {
		responses["default"] = map[string]interface{}{
			"description": "FHIR OperationOutcome",
			"content":     jsonContent("OperationOutcome"),
		}
	}
	op["responses"] = responses
	return op
}

func jsonContent(schema string) map[string]interface{} {
	return map[string]interface{}{
		"application/json": map[string]interface{}{
			"schema": ref(schema),
		},
	}
}

func ref(schema string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + schema}
}

// convertPath rewrites echo's ":param" segments to OpenAPI "{param}" and
// returns the parameter names in order.
func convertPath(path string) (string, []string) {
	segs := strings.Split(path, "/")
	var params []string
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			params = append(params, s[1:])
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/"), params
}

// operationID derives a stable camelCase id, e.g. "POST /api/v1/coding/em-level"
// becomes "postApiV1CodingEmLevel".
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	upper := true
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if upper && r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	return b.String()
}

// defaultTag picks the first path segment after the version prefix.
func defaultTag(path string) string {
	for _, s := range strings.Split(path, "/") {
		switch s {
		case "", "api", "v1":
			continue
		}
		return strings.TrimPrefix(s, ":")
	}
	return "default"
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ── Component schemas ───────────────────────────────────────────────────

func buildComponentSchemas() map[string]interface{} {
	str := map[string]interface{}{"type": "string"}
	num := map[string]interface{}{"type": "number"}
	boolean := map[string]interface{}{"type": "boolean"}
	strArray := map[string]interface{}{"type": "array", "items": str}
	arrayOf := func(schema string) map[string]interface{} {
		return map[string]interface{}{"type": "array", "items": ref(schema)}
	}
	object := func(props map[string]interface{}, required ...string) map[string]interface{} {
		o := map[string]interface{}{"type": "object", "properties": props}
		if len(required) > 0 {
			o["required"] = required
		}
		return o
	}
	conditionEnum := map[string]interface{}{
		"type": "string",
		"enum": []string{"pad", "venous", "carotid", "wound", "dialysis", "aaa", "dvt"},
	}

	return map[string]interface{}{
		"Answer": object(map[string]interface{}{
			"checked": boolean,
			"text":    str,
			"value":   str,
			"values":  strArray,
		}),
		"Answers": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": ref("Answer"),
		},
		"VisitContext": object(map[string]interface{}{"newPatient": boolean}),
		"Condition": object(map[string]interface{}{
			"id":   conditionEnum,
			"name": str,
		}),
		"ConditionList": arrayOf("Condition"),
		"SuggestionRequest": object(map[string]interface{}{
			"conditions": map[string]interface{}{"type": "array", "items": conditionEnum},
			"answers":    ref("Answers"),
			"visit":      ref("VisitContext"),
		}, "conditions"),
		"SingleConditionRequest": object(map[string]interface{}{
			"condition": conditionEnum,
			"answers":   ref("Answers"),
			"visit":     ref("VisitContext"),
		}, "condition"),
		"CodeSuggestion": object(map[string]interface{}{
			"code":           str,
			"description":    str,
			"confidence":     map[string]interface{}{"type": "string", "enum": []string{"high", "medium", "low"}},
			"reason":         str,
			"rvu":            num,
			"conditionType":  conditionEnum,
			"conditionLabel": str,
		}, "code", "description", "confidence", "reason"),
		"CodeSuggestionList": arrayOf("CodeSuggestion"),
		"MultiConditionResult": object(map[string]interface{}{
			"icd10":          arrayOf("CodeSuggestion"),
			"cpt":            arrayOf("CodeSuggestion"),
			"emLevel":        ref("CodeSuggestion"),
			"conditionCount": map[string]interface{}{"type": "integer"},
		}),
		"SuggestionResponse": object(map[string]interface{}{
			"id":         map[string]interface{}{"type": "string", "format": "uuid"},
			"result":     ref("MultiConditionResult"),
			"total_rvu":  num,
			"laterality": map[string]interface{}{"type": "string", "enum": []string{"right", "left", "bilateral"}},
			"fhir": object(map[string]interface{}{
				"diagnoses":  arrayOf("CodeableConcept"),
				"procedures": arrayOf("CodeableConcept"),
			}),
		}),
		"RVURequest":     object(map[string]interface{}{"codes": strArray}, "codes"),
		"RVUResponse":    object(map[string]interface{}{"total_rvu": num}),
		"ScoringRequest": object(map[string]interface{}{"answers": ref("Answers")}),
		"ScoringResult": object(map[string]interface{}{
			"system":         str,
			"name":           str,
			"value":          str,
			"score":          map[string]interface{}{"type": "integer"},
			"label":          str,
			"description":    str,
			"recommendation": str,
			"components": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "integer"},
			},
			"icd10Hint": str,
		}),
		"ScoringResponse": object(map[string]interface{}{
			"condition": conditionEnum,
			"results":   arrayOf("ScoringResult"),
		}),
		"Coding": object(map[string]interface{}{
			"system":  map[string]interface{}{"type": "string", "format": "uri"},
			"code":    str,
			"display": str,
		}),
		"CodeableConcept": object(map[string]interface{}{
			"coding": arrayOf("Coding"),
			"text":   str,
		}),
		"Parameters": object(map[string]interface{}{
			"resourceType": map[string]interface{}{"type": "string", "enum": []string{"Parameters"}},
			"parameter": map[string]interface{}{
				"type": "array",
				"items": object(map[string]interface{}{
					"name":         str,
					"valueString":  str,
					"valueCode":    str,
					"valueBoolean": boolean,
					"valueDecimal": num,
				}, "name"),
			},
		}, "resourceType"),
		"OperationOutcome": buildOperationOutcomeSchema(),
	}
}

func buildOperationOutcomeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"resourceType": map[string]interface{}{"type": "string", "enum": []string{"OperationOutcome"}},
			"issue": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"severity": map[string]interface{}{
							"type": "string",
							"enum": []string{"fatal", "error", "warning", "information"},
						},
						"code":        map[string]interface{}{"type": "string"},
						"diagnostics": map[string]interface{}{"type": "string"},
						"details":     map[string]interface{}{"$ref": "#/components/schemas/CodeableConcept"},
					},
					"required": []string{"severity", "code"},
				},
			},
		},
		"required": []string{"resourceType", "issue"},
	}
}

// ── Swagger UI ──────────────────────────────────────────────────────────

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Vascular Intake Coding API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    html { box-sizing: border-box; overflow-y: scroll; }
    *, *:before, *:after { box-sizing: inherit; }
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/api/openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [
        SwaggerUIBundle.presets.apis,
        SwaggerUIBundle.SwaggerUIStandalonePreset
      ],
      layout: "BaseLayout"
    })
  </script>
</body>
</html>`

// RegisterRoutes registers the OpenAPI endpoints.
func (g *Generator) RegisterRoutes(apiGroup *echo.Group) {
	apiGroup.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	apiGroup.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
