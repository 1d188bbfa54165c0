package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Checklist API",
        "description": "Checklist content management and distribution backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Checklists", "description": "Checklist browsing and downloads"},
        {"name": "Contributions", "description": "Community contribution queue"},
        {"name": "Admin", "description": "Admin CRUD, moderation and analytics"}
    ],
    "paths": {
        "/checklists": {
            "get": {
                "tags": ["Checklists"],
                "summary": "List checklists",
                "parameters": [
                    {"name": "sort", "in": "query", "type": "string", "enum": ["newest", "popular"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checklists/{id}": {
            "get": {
                "tags": ["Checklists"],
                "summary": "Get a checklist with items and features",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checklists/{id}/download": {
            "get": {
                "tags": ["Checklists"],
                "summary": "Download a checklist in the requested format",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "markdown", "excel", "zip"]}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "404": {"description": "Format not available"},
                    "501": {"description": "Format not implemented"}
                }
            }
        },
        "/checklists/{id}/contributions": {
            "get": {
                "tags": ["Contributions"],
                "summary": "Recently approved contributions for a checklist",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/search": {
            "get": {
                "tags": ["Checklists"],
                "summary": "Search checklists",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/categories": {
            "get": {
                "tags": ["Checklists"],
                "summary": "List categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/categories/{category}/checklists": {
            "get": {
                "tags": ["Checklists"],
                "summary": "List checklists in a category",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["Checklists"],
                "summary": "Aggregate site counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contributions": {
            "post": {
                "tags": ["Contributions"],
                "summary": "Submit a community contribution",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitContributionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/checklists": {
            "post": {
                "tags": ["Admin"],
                "summary": "Create a checklist",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "X-Admin-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "title", "in": "formData", "required": true, "type": "string"},
                    {"name": "description", "in": "formData", "required": true, "type": "string"},
                    {"name": "icon", "in": "formData", "type": "string"},
                    {"name": "category", "in": "formData", "type": "string"},
                    {"name": "content", "in": "formData", "type": "string"},
                    {"name": "features", "in": "formData", "type": "string"},
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/checklists/{id}": {
            "put": {
                "tags": ["Admin"],
                "summary": "Partially update a checklist",
                "parameters": [
                    {"name": "X-Admin-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateChecklistRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a checklist",
                "parameters": [
                    {"name": "X-Admin-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/admin/checklists/{id}/file": {
            "post": {
                "tags": ["Admin"],
                "summary": "Replace the stored file payload",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "X-Admin-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/contributions": {
            "get": {
                "tags": ["Admin"],
                "summary": "List pending contributions",
                "parameters": [
                    {"name": "X-Admin-Key", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/contributions/{id}/review": {
            "post": {
                "tags": ["Admin"],
                "summary": "Approve or reject a contribution",
                "parameters": [
                    {"name": "X-Admin-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewContributionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/admin/contributions/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Contribution queue counters",
                "parameters": [
                    {"name": "X-Admin-Key", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/analytics/downloads": {
            "get": {
                "tags": ["Admin"],
                "summary": "Per-checklist download totals",
                "parameters": [
                    {"name": "X-Admin-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "Checklist": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "icon": {"type": "string"},
                "category": {"type": "string"},
                "version": {"type": "string"},
                "downloads": {"type": "integer"},
                "contributors": {"type": "integer"},
                "formats": {"type": "string"},
                "is_featured": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "ChecklistItem": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "checklist_id": {"type": "integer"},
                "phase": {"type": "string"},
                "item_text": {"type": "string"},
                "is_required": {"type": "boolean"},
                "item_order": {"type": "integer"}
            }
        },
        "SubmitContributionRequest": {
            "type": "object",
            "properties": {
                "checklistId": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "kind": {"type": "string", "enum": ["item", "feature"]},
                "content": {"type": "string"}
            },
            "required": ["checklistId", "kind", "content"]
        },
        "ReviewContributionRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["approved", "rejected"]},
                "notes": {"type": "string"}
            },
            "required": ["decision"]
        },
        "UpdateChecklistRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "icon": {"type": "string"},
                "category": {"type": "string"},
                "version": {"type": "string"},
                "content": {"type": "string"},
                "is_featured": {"type": "boolean"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/ChecklistItem"}},
                "features": {"type": "array", "items": {"type": "string"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
