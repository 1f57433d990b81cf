package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Lost & Found API",
        "description": "Item recovery workflow for the campus lost and found office",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "FoundItems", "description": "Registered found item catalogue"},
        {"name": "LostReports", "description": "Student lost report intake"},
        {"name": "Claims", "description": "Ownership claims"},
        {"name": "Matches", "description": "Staff-proposed pairings"},
        {"name": "Verifications", "description": "In-person ownership checks"},
        {"name": "Receipts", "description": "Return receipts and documents"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Return the authenticated identity",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/items": {
            "get": {
                "tags": ["FoundItems"],
                "summary": "Browse registered items",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["FoundItems"],
                "summary": "Register a recovered item",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/items/{id}": {
            "get": {
                "tags": ["FoundItems"],
                "summary": "Get item detail",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/items/{id}/availability": {
            "get": {
                "tags": ["Claims"],
                "summary": "Check whether an item can be claimed",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/items/{id}/case": {
            "get": {
                "tags": ["FoundItems"],
                "summary": "Get the full recovery case for an item",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/items/{id}/dispose": {
            "post": {
                "tags": ["FoundItems"],
                "summary": "Dispose an unclaimed item",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports": {
            "get": {
                "tags": ["LostReports"],
                "summary": "List lost reports",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["LostReports"],
                "summary": "File a lost report",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/reports/{id}/review": {
            "post": {
                "tags": ["LostReports"],
                "summary": "Verify or reject a pending lost report",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/claims": {
            "get": {
                "tags": ["Claims"],
                "summary": "List claims",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Claims"],
                "summary": "Stake a claim on a found item",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/claims/{id}/cancel": {
            "post": {
                "tags": ["Claims"],
                "summary": "Cancel a pending claim",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/matches": {
            "get": {
                "tags": ["Matches"],
                "summary": "List match requests",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Matches"],
                "summary": "Propose a match",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/matches/{id}/confirm": {
            "post": {
                "tags": ["Matches"],
                "summary": "Confirm a proposed match",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/matches/{id}/reject": {
            "post": {
                "tags": ["Matches"],
                "summary": "Reject a proposed match",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/matches/{id}/resolve": {
            "post": {
                "tags": ["Matches"],
                "summary": "Resolve a confirmed match into a handover",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/verifications": {
            "post": {
                "tags": ["Verifications"],
                "summary": "Escalate a claim to in-person verification",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/verifications/{id}/decide": {
            "post": {
                "tags": ["Verifications"],
                "summary": "Record the verification outcome",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/receipts": {
            "get": {
                "tags": ["Receipts"],
                "summary": "List return receipts",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Receipts"],
                "summary": "Issue a return receipt for an approved claim",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/receipts/{id}/download": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Get a signed link for the receipt PDF",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
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
                "pagination": {"type": "object"},
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
