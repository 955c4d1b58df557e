package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Natours API",
        "description": "Tours catalogue with filtering, sorting, projection and pagination, plus user accounts and credential lifecycle.",
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
        {"name": "Tours", "description": "Tour catalogue"},
        {"name": "Auth", "description": "Sessions and password lifecycle"},
        {"name": "Users", "description": "Profiles and user administration"}
    ],
    "paths": {
        "/tours": {
            "get": {
                "tags": ["Tours"],
                "summary": "List tours",
                "description": "Filters use field=value or field[gte|gt|lte|lt|ne|in]=value. sort, fields, page and limit refine the result.",
                "parameters": [
                    {"name": "sort", "in": "query", "type": "string", "description": "Comma separated fields, prefix - for descending"},
                    {"name": "fields", "in": "query", "type": "string", "description": "Comma separated projection, prefix - to exclude"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            },
            "post": {
                "tags": ["Tours"],
                "summary": "Create tour",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Tour"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failed"},
                    "401": {"description": "Not logged in"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Duplicate name"}
                }
            }
        },
        "/tours/top-5-cheap": {
            "get": {
                "tags": ["Tours"],
                "summary": "Five best rated, cheapest tours",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/tours/export": {
            "get": {
                "tags": ["Tours"],
                "summary": "Export tours",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unsupported format"}
                }
            }
        },
        "/tours/{id}": {
            "get": {
                "tags": ["Tours"],
                "summary": "Get tour",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Tours"],
                "summary": "Update tour",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Tour"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Validation failed"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Tours"],
                "summary": "Delete tour",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/users/signup": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign up",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/SessionEnvelope"}},
                    "400": {"description": "Validation failed"},
                    "409": {"description": "Email taken"}
                }
            }
        },
        "/users/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionEnvelope"}},
                    "401": {"description": "Incorrect email or password"}
                }
            }
        },
        "/users/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "Session cookie cleared"}
                }
            }
        },
        "/users/forgotPassword": {
            "post": {
                "tags": ["Auth"],
                "summary": "Request a password reset",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"email": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "Token sent to email"},
                    "404": {"description": "Unknown email"},
                    "500": {"description": "Mail delivery failed"}
                }
            }
        },
        "/users/resetPassword/{token}": {
            "patch": {
                "tags": ["Auth"],
                "summary": "Reset password",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PasswordPair"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionEnvelope"}},
                    "400": {"description": "Token is invalid or has expired"}
                }
            }
        },
        "/users/updateMyPassword": {
            "patch": {
                "tags": ["Auth"],
                "summary": "Change password",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionEnvelope"}},
                    "401": {"description": "Current password is wrong"}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users/updateMe": {
            "patch": {
                "tags": ["Users"],
                "summary": "Update own profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Password fields are not accepted"}
                }
            }
        },
        "/users/deleteMe": {
            "delete": {
                "tags": ["Users"],
                "summary": "Deactivate own account",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}},
                    "403": {"description": "Admins only"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "patch": {
                "tags": ["Users"],
                "summary": "Update user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "totalCount": {"type": "integer"}
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
        "Tour": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "duration": {"type": "integer"},
                "maxGroupSize": {"type": "integer"},
                "difficulty": {"type": "string", "enum": ["easy", "medium", "difficult"]},
                "price": {"type": "number"},
                "priceDiscount": {"type": "number"},
                "summary": {"type": "string"},
                "description": {"type": "string"},
                "imageCover": {"type": "string"},
                "images": {"type": "array", "items": {"type": "string"}},
                "startDates": {"type": "array", "items": {"type": "string", "format": "date-time"}},
                "secretTour": {"type": "boolean"}
            }
        },
        "SignupRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "passwordConfirm": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "PasswordPair": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "passwordConfirm": {"type": "string"}
            }
        },
        "SessionEnvelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "token": {"type": "string"},
                "data": {"type": "object"}
            }
        },
        "ListEnvelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "results": {"type": "integer"},
                "data": {"type": "object"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"}
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
