package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Scheduler API",
        "description": "Class section management, conflict detection and schedule generation.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Classes", "description": "Class sections, conflict probes and availability"},
        {"name": "Scheduler", "description": "Schedule generation and proposals"},
        {"name": "Slots", "description": "Time slot catalog and codec"}
    ],
    "paths": {
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List class sections",
                "parameters": [
                    {"name": "courseCode", "in": "query", "type": "string"},
                    {"name": "faculty", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "string"},
                    {"name": "time", "in": "query", "type": "string"},
                    {"name": "room", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Create class section",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassSectionRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room or instructor conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}": {
            "get": {
                "tags": ["Classes"],
                "summary": "Get class section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Classes"],
                "summary": "Update class section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassSectionRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            },
            "delete": {
                "tags": ["Classes"],
                "summary": "Delete class section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/classes/bulk": {
            "post": {
                "tags": ["Classes"],
                "summary": "Bulk create class sections (all or nothing)",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {
                    "type": "object",
                    "properties": {"classes": {"type": "array", "items": {"$ref": "#/definitions/ClassSectionRequest"}}}
                }}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/classes/import": {
            "post": {
                "tags": ["Classes"],
                "summary": "Import class sections from CSV",
                "consumes": ["multipart/form-data", "text/csv"],
                "parameters": [{"name": "file", "in": "formData", "type": "file"}],
                "responses": {"201": {"description": "Imported"}}
            }
        },
        "/classes/export": {
            "get": {
                "tags": ["Classes"],
                "summary": "Export class sections",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/calendar"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx", "ics"]}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/classes/conflicts/check": {
            "post": {
                "tags": ["Classes"],
                "summary": "Check a proposed class for conflicts",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassConflictProbe"}}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/classes/sections/available": {
            "get": {
                "tags": ["Classes"],
                "summary": "Free section numbers for a course",
                "parameters": [{"name": "courseCode", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/classes/rooms/available": {
            "get": {
                "tags": ["Classes"],
                "summary": "Room occupancy for a day pattern and time slot",
                "parameters": [
                    {"name": "days", "in": "query", "required": true, "type": "string"},
                    {"name": "time", "in": "query", "required": true, "type": "string"},
                    {"name": "isLab", "in": "query", "type": "boolean"},
                    {"name": "excludeId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schedules/generator": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate three ranked schedule options",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}
            }
        },
        "/schedules/proposals/{id}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Get a stored schedule proposal",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found or expired"}}
            }
        },
        "/schedules/proposals/{id}/accept": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Accept one option of a proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"option": {"type": "integer", "minimum": 1, "maximum": 3}}}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "412": {"description": "Nothing to place"}}
            }
        },
        "/schedules/proposals/{id}/options/{option}/export": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Export one option of a proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "option", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx", "ics"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/schedules/labs/validate": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Preflight lab preferences",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {
                    "type": "object",
                    "properties": {"instructors": {"type": "array", "items": {"$ref": "#/definitions/InstructorPreference"}}}
                }}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/slots": {
            "get": {"tags": ["Slots"], "summary": "List theory and lab time slots", "responses": {"200": {"description": "OK"}}}
        },
        "/slots/decode/{token}": {
            "get": {
                "tags": ["Slots"],
                "summary": "Decode a compact slot token",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Malformed token"}}
            }
        },
        "/slots/encode": {
            "get": {
                "tags": ["Slots"],
                "summary": "Encode days and a time slot",
                "parameters": [
                    {"name": "days", "in": "query", "required": true, "type": "string"},
                    {"name": "time", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "ClassSectionRequest": {
            "type": "object",
            "required": ["courseCode", "section", "faculty", "days", "time", "room"],
            "properties": {
                "courseCode": {"type": "string", "example": "CSE101"},
                "section": {"type": "string", "example": "01"},
                "faculty": {"type": "string"},
                "days": {"type": "string", "enum": ["ST", "MW", "RA", "S", "M", "T", "W", "R", "A"]},
                "time": {"type": "string", "example": "08:00 AM - 09:30 AM"},
                "room": {"type": "string", "example": "ARC201"},
                "maxCapacity": {"type": "integer"},
                "enrolled": {"type": "integer"}
            }
        },
        "ClassConflictProbe": {
            "type": "object",
            "required": ["faculty", "days", "time"],
            "properties": {
                "faculty": {"type": "string"},
                "days": {"type": "string"},
                "time": {"type": "string"},
                "room": {"type": "string"},
                "excludeId": {"type": "string"}
            }
        },
        "InstructorPreference": {
            "type": "object",
            "required": ["name", "courseCode", "preferredDays", "availableTimes"],
            "properties": {
                "name": {"type": "string"},
                "courseCode": {"type": "string"},
                "preferredDays": {"type": "array", "items": {"type": "string", "enum": ["ST", "MW", "RA"]}},
                "availableTimes": {"type": "array", "items": {"type": "string"}},
                "maxSections": {"type": "integer"},
                "hasLab": {"type": "boolean"},
                "labDays": {"type": "array", "items": {"type": "string"}},
                "labTimes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "required": ["instructors", "totalSections"],
            "properties": {
                "instructors": {"type": "array", "items": {"$ref": "#/definitions/InstructorPreference"}},
                "totalSections": {"type": "integer", "minimum": 1}
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
                "details": {"type": "object"},
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
