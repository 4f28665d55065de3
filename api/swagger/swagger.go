package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Weekly timetable generation and faculty allocation for departments",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Timetables", "description": "Generation, persistence and validation of class timetables"},
        {"name": "Operations", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "security": [],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check",
                "security": [],
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a timetable proposal for one class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Preview", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Generation timed out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/save": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Persist a timetable proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Proposal expired or unknown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Proposal conflicts with stored timetables", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List stored timetables of a department",
                "parameters": [
                    {"name": "departmentId", "in": "query", "type": "string", "required": true},
                    {"name": "year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{departmentId}/{year}/{section}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get the stored timetable of a class",
                "parameters": [
                    {"name": "departmentId", "in": "path", "type": "string", "required": true},
                    {"name": "year", "in": "path", "type": "string", "required": true},
                    {"name": "section", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{departmentId}/{year}/{section}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a stored timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "departmentId", "in": "path", "type": "string", "required": true},
                    {"name": "year", "in": "path", "type": "string", "required": true},
                    {"name": "section", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/timetables/validate/conflicts": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Check a grid for faculty conflicts against stored timetables",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/validate/labs": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Inspect lab placement of a grid",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateLabsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/batch": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Regenerate several sections of a department year in the background",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchGenerateRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Batch generation disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/batch/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Report progress of a batch job",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Subject": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "code": {"type": "string"},
                "hours_per_week": {"type": "integer"},
                "type": {"type": "string", "enum": ["theory", "lab", "elective", "open-elective"]},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SpecialHoursConfig": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "totalHours": {"type": "integer"},
                "saturdayHours": {"type": "integer"},
                "saturdayPeriods": {"type": "array", "items": {"type": "integer"}},
                "weekdaysHours": {"type": "integer"},
                "weekdaysPeriods": {"type": "array", "items": {"type": "integer"}},
                "isActive": {"type": "boolean"}
            }
        },
        "LabPreference": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "morningEnabled": {"type": "boolean"},
                "morningStart": {"type": "integer"},
                "eveningTwoHourStartAt5": {"type": "boolean"},
                "priority": {"type": "integer"}
            }
        },
        "Grid": {
            "type": "array",
            "description": "Six days of seven periods; empty cells are null",
            "items": {"type": "array", "items": {"type": "string"}}
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["departmentId", "year", "section"],
            "properties": {
                "departmentId": {"type": "string"},
                "year": {"type": "string"},
                "section": {"type": "string"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "specialConfigs": {"type": "array", "items": {"$ref": "#/definitions/SpecialHoursConfig"}},
                "labPreferences": {"type": "array", "items": {"$ref": "#/definitions/LabPreference"}},
                "openElectiveQuota": {"type": "integer", "minimum": 0, "maximum": 12},
                "legacyFlags": {"type": "object", "additionalProperties": {"type": "boolean"}}
            }
        },
        "SaveTimetableRequest": {
            "type": "object",
            "required": ["proposalId"],
            "properties": {
                "proposalId": {"type": "string"},
                "force": {"type": "boolean"}
            }
        },
        "ValidateConflictsRequest": {
            "type": "object",
            "required": ["departmentId", "year", "section"],
            "properties": {
                "departmentId": {"type": "string"},
                "year": {"type": "string"},
                "section": {"type": "string"},
                "grid": {"$ref": "#/definitions/Grid"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}}
            }
        },
        "ValidateLabsRequest": {
            "type": "object",
            "required": ["subjects"],
            "properties": {
                "grid": {"$ref": "#/definitions/Grid"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "labPreferences": {"type": "array", "items": {"$ref": "#/definitions/LabPreference"}}
            }
        },
        "BatchGenerateRequest": {
            "type": "object",
            "required": ["departmentId", "year", "sections"],
            "properties": {
                "departmentId": {"type": "string"},
                "year": {"type": "string"},
                "sections": {"type": "array", "items": {"type": "string"}}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
