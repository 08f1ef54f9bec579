package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Suivie Academique API",
        "description": "Academic tracking backend: staff, courses, rooms and course session scheduling",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and sessions"},
        {"name": "Staff", "description": "Staff directory"},
        {"name": "Courses", "description": "Course catalogue"},
        {"name": "Rooms", "description": "Room inventory and availability"},
        {"name": "Assignments", "description": "Staff to course assignments"},
        {"name": "Programmations", "description": "Course session scheduling and validation"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with login and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a staff member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStaffRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Login or phone already taken"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Revoke the active refresh token",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Change the caller's password",
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Old password mismatch"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Current staff profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff": {
            "get": {
                "tags": ["Staff"],
                "security": [{"BearerAuth": []}],
                "summary": "List staff",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "sex", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/{code}": {
            "get": {
                "tags": ["Staff"],
                "security": [{"BearerAuth": []}],
                "summary": "Get staff member",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Staff"],
                "security": [{"BearerAuth": []}],
                "summary": "Update staff member",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not allowed"}
                }
            },
            "delete": {
                "tags": ["Staff"],
                "security": [{"BearerAuth": []}],
                "summary": "Delete staff member",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "security": [{"BearerAuth": []}],
                "summary": "List courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "security": [{"BearerAuth": []}],
                "summary": "Create course",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Course code already exists"}
                }
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Rooms"],
                "security": [{"BearerAuth": []}],
                "summary": "List rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rooms"],
                "security": [{"BearerAuth": []}],
                "summary": "Create room",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Capacity below the minimum of 10"}
                }
            }
        },
        "/rooms/{code}/availability": {
            "get": {
                "tags": ["Rooms"],
                "security": [{"BearerAuth": []}],
                "summary": "Check a room over a time window",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "required": true, "type": "string", "format": "date-time"},
                    {"name": "end", "in": "query", "required": true, "type": "string", "format": "date-time"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "security": [{"BearerAuth": []}],
                "summary": "List assignments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "security": [{"BearerAuth": []}],
                "summary": "Assign a staff member to a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Pair already assigned"}
                }
            }
        },
        "/assignments/counts": {
            "get": {
                "tags": ["Assignments"],
                "security": [{"BearerAuth": []}],
                "summary": "Assignment counts per staff member or course",
                "parameters": [
                    {"name": "staff", "in": "query", "type": "string"},
                    {"name": "course", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown staff or course"}
                }
            }
        },
        "/assignments/{courseCode}/{staffCode}": {
            "delete": {
                "tags": ["Assignments"],
                "security": [{"BearerAuth": []}],
                "summary": "Remove an assignment",
                "parameters": [
                    {"name": "courseCode", "in": "path", "required": true, "type": "string"},
                    {"name": "staffCode", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/programmations": {
            "get": {
                "tags": ["Programmations"],
                "security": [{"BearerAuth": []}],
                "summary": "List programmations",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "room", "in": "query", "type": "string"},
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "organizer", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date-time"},
                    {"name": "to", "in": "query", "type": "string", "format": "date-time"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Programmations"],
                "security": [{"BearerAuth": []}],
                "summary": "Schedule a course session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room occupied for the window"}
                }
            }
        },
        "/programmations/{id}/validate": {
            "post": {
                "tags": ["Programmations"],
                "security": [{"BearerAuth": []}],
                "summary": "Validate a scheduled session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already validated"}
                }
            }
        },
        "/programmations/export": {
            "get": {
                "tags": ["Programmations"],
                "security": [{"BearerAuth": []}],
                "summary": "Export programmations as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File attachment"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["login", "password"],
            "properties": {
                "login": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "required": ["course_code", "staff_code"],
            "properties": {
                "course_code": {"type": "string"},
                "staff_code": {"type": "string"}
            }
        },
        "RegisterStaffRequest": {
            "type": "object",
            "required": ["name", "login", "password", "sex", "phone", "role"],
            "properties": {
                "name": {"type": "string"},
                "login": {"type": "string"},
                "password": {"type": "string"},
                "sex": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
