// Package docs holds the OpenAPI document for the HTTP API, registered with swag and served by gofiber/swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/dispatch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Trigger functions for a blob",
                "parameters": [
                    {
                        "description": "Triggering blob",
                        "name": "blob",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.dispatchRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dispatchResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/events": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Receive storage CloudEvents",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dispatchResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "options": {
                "tags": ["events"],
                "summary": "CloudEvents webhook handshake",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Origin requesting delivery",
                        "name": "WebHook-Request-Origin",
                        "in": "header",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/events/minio": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Receive MinIO bucket notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dispatchResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/functions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["functions"],
                "summary": "List hosted functions",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.functionInfo"}}
                    }
                }
            }
        },
        "/api/invocations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["invocations"],
                "summary": "List invocations",
                "parameters": [
                    {"type": "integer", "default": 10, "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.InvocationListResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/invocations/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["invocations"],
                "summary": "Get an invocation",
                "parameters": [
                    {"type": "string", "description": "Invocation ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Invocation"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            },
            "delete": {
                "tags": ["invocations"],
                "summary": "Delete an invocation",
                "parameters": [
                    {"type": "string", "description": "Invocation ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/api/invocations/{id}/output": {
            "get": {
                "tags": ["invocations"],
                "summary": "Download an invocation's output",
                "parameters": [
                    {"type": "string", "description": "Invocation ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "307": {"description": "Temporary Redirect"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "handler.dispatchRequest": {
            "type": "object",
            "properties": {
                "container": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "handler.dispatchResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.Invocation"}}
            }
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "handler.functionInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "output": {"type": "string"},
                "trigger": {"type": "string"}
            }
        },
        "model.Invocation": {
            "type": "object",
            "properties": {
                "bytes_written": {"type": "integer"},
                "duration_ms": {"type": "integer"},
                "error": {"type": "string"},
                "function": {"type": "string"},
                "id": {"type": "string"},
                "output_path": {"type": "string"},
                "started_at": {"type": "string"},
                "status": {"$ref": "#/definitions/model.InvocationStatus"},
                "trigger_path": {"type": "string"}
            }
        },
        "model.InvocationStatus": {
            "type": "string",
            "enum": ["succeeded", "failed"],
            "x-enum-varnames": ["InvocationSucceeded", "InvocationFailed"]
        },
        "service.InvocationListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.Invocation"}},
                "total": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "filemeta",
	Description:      "Blob-triggered functions: metadata reports and byte copies.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
