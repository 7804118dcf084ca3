package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Satzwerk API",
        "description": "Spaced-repetition translation practice service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Gateway token issuance"},
        {"name": "Practice", "description": "Daily sessions, submissions and results"},
        {"name": "Stats", "description": "Learner progress and weekly summaries"}
    ],
    "paths": {
        "/auth/token": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Issue access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid gateway key"}
                }
            }
        },
        "/topics": {
            "get": {
                "tags": ["Practice"],
                "summary": "List practice topics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/practice/sessions": {
            "post": {
                "tags": ["Practice"],
                "summary": "Start today's practice session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/StartSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Sentence pool exhausted"}
                }
            }
        },
        "/practice/sessions/today": {
            "get": {
                "tags": ["Practice"],
                "summary": "Get today's open session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No open session"}
                }
            }
        },
        "/practice/sessions/complete": {
            "post": {
                "tags": ["Practice"],
                "summary": "Complete today's session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session already finalized"}
                }
            }
        },
        "/practice/translations": {
            "post": {
                "tags": ["Practice"],
                "summary": "Submit translations for grading",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitTranslationsRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No open session"}
                }
            }
        },
        "/practice/results": {
            "get": {
                "tags": ["Practice"],
                "summary": "Get today's graded results",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats/me": {
            "get": {
                "tags": ["Stats"],
                "summary": "Get my progress stats",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats/weekly": {
            "get": {
                "tags": ["Stats"],
                "summary": "Get this week's summary",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats/weekly/export": {
            "get": {
                "tags": ["Stats"],
                "summary": "Export this week's summary",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats/weekly/download": {
            "get": {
                "tags": ["Stats"],
                "summary": "Download an exported summary",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "TokenRequest": {
            "type": "object",
            "properties": {
                "gateway_key": {"type": "string"},
                "user_id": {"type": "integer"},
                "username": {"type": "string"},
                "channel": {"type": "string"}
            },
            "required": ["gateway_key", "user_id", "username"]
        },
        "StartSessionRequest": {
            "type": "object",
            "properties": {
                "topic": {"type": "string"}
            }
        },
        "SubmitTranslationsRequest": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SubmissionItem"}
                }
            },
            "required": ["items"]
        },
        "SubmissionItem": {
            "type": "object",
            "properties": {
                "seq": {"type": "integer"},
                "translation": {"type": "string"}
            },
            "required": ["seq", "translation"]
        },
        "SubmissionReceipt": {
            "type": "object",
            "properties": {
                "seq": {"type": "integer"},
                "status": {"type": "string", "enum": ["QUEUED", "DUPLICATE", "UNKNOWN_SENTENCE"]},
                "reason": {"type": "string"}
            }
        },
        "GradedResult": {
            "type": "object",
            "properties": {
                "seq": {"type": "integer"},
                "sentence_id": {"type": "integer"},
                "sentence": {"type": "string"},
                "translation": {"type": "string"},
                "score": {"type": "integer"},
                "feedback": {"type": "string"},
                "correct_translation": {"type": "string"},
                "mastered": {"type": "boolean"},
                "graded_at": {"type": "string"}
            }
        },
        "WeeklySummary": {
            "type": "object",
            "properties": {
                "user_id": {"type": "integer"},
                "week_start": {"type": "string"},
                "week_end": {"type": "string"},
                "average_score": {"type": "number"},
                "avg_session_minutes": {"type": "number"},
                "practiced_days": {"type": "integer"},
                "missed_days": {"type": "integer"},
                "weekly_score": {"type": "number"},
                "mastered_this_week": {"type": "integer"},
                "top_categories": {"type": "array", "items": {"type": "object"}},
                "download_url": {"type": "string"}
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
