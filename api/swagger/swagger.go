package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "User Auth API",
        "description": "Cookie session authentication: signup, login, refresh rotation and user lookup",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Users", "description": "Accounts and cookie sessions"}
    ],
    "paths": {
        "/users/signup": {
            "post": {
                "tags": ["Users"],
                "summary": "Sign up",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Username taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "tags": ["Users"],
                "summary": "Log in",
                "description": "Sets the access-token cookie (6h). With auto=true also sets the http-only refresh-token cookie (30d).",
                "parameters": [
                    {"name": "auto", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown username or wrong password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too many failed attempts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/logout": {
            "post": {
                "tags": ["Users"],
                "summary": "Log out",
                "responses": {
                    "204": {"description": "Cookies cleared and refresh token revoked"},
                    "401": {"description": "Session no longer valid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "498": {"description": "Sign in again", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/refresh": {
            "post": {
                "tags": ["Users"],
                "summary": "Rotate the cookie pair",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Refresh token reused or revoked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "498": {"description": "Sign in again", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Current user or null",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Users"],
                "summary": "Update contact",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session no longer valid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "498": {"description": "Sign in again", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session no longer valid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "498": {"description": "Sign in again", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/search": {
            "get": {
                "tags": ["Users"],
                "summary": "Search users",
                "description": "orderBy accepts id, username, created_at or updated_at; anything else sorts by id.",
                "parameters": [
                    {"name": "pageNo", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"},
                    {"name": "query", "in": "query", "type": "string"},
                    {"name": "orderBy", "in": "query", "type": "string"},
                    {"name": "align", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SignupRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "contact": {"type": "string"},
                "password": {"type": "string"},
                "passwordConfirm": {"type": "string"}
            },
            "required": ["username", "contact", "password", "passwordConfirm"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "contact": {"type": "string"}
            }
        },
        "UserInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "contact": {"type": "string"},
                "is_me": {"type": "boolean"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "total_count": {"type": "integer"},
                "page_items": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
