package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Homeschool Planner API",
        "description": "Weekly schedule and block assignment engine for homeschool term plans",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Planner", "description": "Block calculation and subject catalog"},
        {"name": "Term Plans", "description": "Term plans owned by a parent"},
        {"name": "Students", "description": "Students enrolled by a parent"},
        {"name": "Schedules", "description": "Per-student weekly schedule editing"},
        {"name": "Exports", "description": "CSV, PDF, XLSX and iCalendar exports"}
    ],
    "paths": {
        "/planner/catalog": {
            "get": {"tags": ["Planner"], "summary": "Default subject and activity catalog", "responses": {"200": {"description": "OK"}}}
        },
        "/planner/calculate": {
            "get": {
                "tags": ["Planner"],
                "summary": "Preview the blocks of a day",
                "parameters": [
                    {"name": "start", "in": "query", "type": "string", "required": true},
                    {"name": "end", "in": "query", "type": "string", "required": true},
                    {"name": "blockLength", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/CalculateResponse"}}}
            }
        },
        "/students": {
            "get": {"tags": ["Students"], "summary": "List students", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Students"], "summary": "Create student", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/APIError"}}}
            }
        },
        "/plans": {
            "get": {
                "tags": ["Term Plans"], "summary": "List term plans", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Term Plans"], "summary": "Create term plan", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTermPlanRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/APIError"}}}
            }
        },
        "/plans/{planId}": {
            "get": {
                "tags": ["Term Plans"], "summary": "Get term plan", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "planId", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}
            }
        },
        "/plans/{planId}/students": {
            "get": {
                "tags": ["Schedules"], "summary": "List student plans of a term plan", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "planId", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/plans/{planId}/blocks/propagate": {
            "post": {
                "tags": ["Schedules"], "summary": "Mirror a block edit onto other students", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "planId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PropagateBlockRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/plans/{planId}/students/{studentId}/schedule": {
            "get": {
                "tags": ["Schedules"], "summary": "Get the working schedule of a student", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "planId", "in": "path", "type": "string", "required": true},
                    {"name": "studentId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/plans/{planId}/students/{studentId}/schedule/save": {
            "post": {"tags": ["Schedules"], "summary": "Persist the working schedule now", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/plans/{planId}/students/{studentId}/schedule/same-schedule/toggle": {
            "post": {"tags": ["Schedules"], "summary": "Toggle same schedule every day", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/plans/{planId}/students/{studentId}/schedule/days/{day}": {
            "patch": {
                "tags": ["Schedules"], "summary": "Edit the start, end or block length of a day", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DayFieldRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}
            }
        },
        "/plans/{planId}/students/{studentId}/schedule/days/{day}/toggle": {
            "post": {"tags": ["Schedules"], "summary": "Toggle whether a day is scheduled", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/plans/{planId}/students/{studentId}/schedule/days/{day}/slots": {
            "get": {"tags": ["Schedules"], "summary": "Time slots of a day", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/plans/{planId}/students/{studentId}/schedule/days/{day}/copy": {
            "post": {
                "tags": ["Schedules"], "summary": "Copy a day onto other days", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CopyDayRequest"}}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/plans/{planId}/students/{studentId}/schedule/days/{day}/blocks": {
            "patch": {
                "tags": ["Schedules"], "summary": "Assign subject, course or type to a block", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BlockFieldRequest"}}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {"tags": ["Schedules"], "summary": "Append a block", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/plans/{planId}/students/{studentId}/schedule/days/{day}/blocks/last": {
            "delete": {
                "tags": ["Schedules"], "summary": "Remove the last block", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "applyToAllDays", "in": "query", "type": "boolean"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/plans/{planId}/students/{studentId}/schedule/days/{day}/blocks/platform": {
            "put": {"tags": ["Schedules"], "summary": "Set the resource link of a block", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Help already requested"}}}
        },
        "/plans/{planId}/students/{studentId}/schedule/days/{day}/blocks/platform-help": {
            "put": {"tags": ["Schedules"], "summary": "Request help finding a resource", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Link already set"}}}
        },
        "/plans/{planId}/students/{studentId}/curriculum": {
            "put": {"tags": ["Schedules"], "summary": "Replace subjects and activities", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/plans/{planId}/students/{studentId}/copy": {
            "post": {
                "tags": ["Schedules"], "summary": "Copy a student plan onto siblings", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CopyScheduleRequest"}}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/plans/{planId}/students/{studentId}/summary": {
            "get": {"tags": ["Exports"], "summary": "Term session totals", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/plans/{planId}/students/{studentId}/schedule/export": {
            "get": {
                "tags": ["Exports"], "summary": "Download the schedule", "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/calendar"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx", "ics"]}],
                "responses": {"200": {"description": "File"}, "400": {"description": "Unsupported format"}}
            }
        }
    },
    "definitions": {
        "CalculateResponse": {
            "type": "object",
            "properties": {
                "blockCount": {"type": "integer"},
                "slots": {"type": "array", "items": {"type": "object", "properties": {"start": {"type": "string"}, "end": {"type": "string"}}}}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["first_name"],
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "grade_level": {"type": "string"}
            }
        },
        "CreateTermPlanRequest": {
            "type": "object",
            "required": ["name", "start_date", "end_date"],
            "properties": {
                "name": {"type": "string"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "DayFieldRequest": {
            "type": "object",
            "properties": {
                "field": {"type": "string", "enum": ["startTime", "endTime", "blockLength"]},
                "value": {"type": "string"}
            }
        },
        "BlockFieldRequest": {
            "type": "object",
            "properties": {
                "time": {"type": "string"},
                "field": {"type": "string", "enum": ["subject", "course", "type"]},
                "value": {"type": "string"},
                "applyToAllDays": {"type": "boolean"}
            }
        },
        "CopyDayRequest": {
            "type": "object",
            "properties": {"toDays": {"type": "array", "items": {"type": "string"}}}
        },
        "CopyScheduleRequest": {
            "type": "object",
            "properties": {
                "targetStudentIds": {"type": "array", "items": {"type": "string"}},
                "scope": {"type": "string", "enum": ["schedule", "activities", "subjects", "blockAssignments", "all"]}
            }
        },
        "PropagateBlockRequest": {
            "type": "object",
            "properties": {
                "sourceStudentId": {"type": "string"},
                "targetStudentIds": {"type": "array", "items": {"type": "string"}},
                "day": {"type": "string"},
                "time": {"type": "string"},
                "field": {"type": "string"},
                "value": {"type": "string"}
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
