package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Records API",
        "description": "Attendance, behaviour and report records for a secondary school.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Attendance", "description": "Daily attendance ledger"},
        {"name": "Behavior", "description": "Violations, positive notes and behaviour scores"},
        {"name": "Reports", "description": "Report snapshots and their approval lifecycle"},
        {"name": "Dashboard", "description": "Cached school-wide statistics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness probe covering the database and cache",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record a day of attendance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RecordAttendanceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Rows written", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance for one day",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "date", "type": "string", "required": true, "format": "date"},
                    {"in": "query", "name": "grade", "type": "string"},
                    {"in": "query", "name": "section", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/students/{id}/history": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance history with a summary for one student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "query", "name": "startDate", "type": "string", "format": "date"},
                    {"in": "query", "name": "endDate", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/behavior/violations": {
            "post": {
                "tags": ["Behavior"],
                "summary": "Record a pending violation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RecordViolationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or employee not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Behavior"],
                "summary": "List violations",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "severity", "type": "string", "enum": ["low", "medium", "high", "critical"]},
                    {"in": "query", "name": "status", "type": "string", "enum": ["pending", "acknowledged", "resolved", "escalated"]},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/behavior/violations/{id}/status": {
            "patch": {
                "tags": ["Behavior"],
                "summary": "Move a violation through its workflow",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ResolveViolationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Violation not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/behavior/positive": {
            "post": {
                "tags": ["Behavior"],
                "summary": "Record positive behaviour and add points",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RecordPositiveRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "get": {
                "tags": ["Behavior"],
                "summary": "List positive behaviour events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Create a report with a frozen summary",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Report number conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Reports"],
                "summary": "List reports",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["draft", "pending", "approved", "rejected", "published"]},
                    {"in": "query", "name": "type", "type": "string"},
                    {"in": "query", "name": "classId", "type": "string"},
                    {"in": "query", "name": "mine", "type": "boolean"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/reports/summary": {
            "get": {
                "tags": ["Reports"],
                "summary": "Preview the summary a report would freeze",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "classId", "type": "string", "required": true},
                    {"in": "query", "name": "periodStart", "type": "string", "format": "date", "required": true},
                    {"in": "query", "name": "periodEnd", "type": "string", "format": "date", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get one report",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/{id}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a rendered report",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "query", "name": "format", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/{id}/submit": {
            "put": {
                "tags": ["Reports"],
                "summary": "Submit a draft report for review",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Not a draft", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the author", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/{id}/approve": {
            "put": {
                "tags": ["Reports"],
                "summary": "Approve a draft or pending report",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/{id}/reject": {
            "put": {
                "tags": ["Reports"],
                "summary": "Reject a pending report with comments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RejectReportRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/reports/{id}/publish": {
            "put": {
                "tags": ["Reports"],
                "summary": "Publish an approved report",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "School-wide statistics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Dashboard disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/dashboard/attendance-chart": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Attendance and absence rate per grade",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "period", "type": "string", "enum": ["week", "month", "semester"], "default": "week"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown period", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Dashboard disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AttendanceEntry": {
            "type": "object",
            "required": ["studentId", "status"],
            "properties": {
                "studentId": {"type": "string", "description": "Student code"},
                "status": {"type": "string", "enum": ["present", "absent", "late", "excused"]},
                "checkInTime": {"type": "string", "example": "07:15"},
                "checkOutTime": {"type": "string", "example": "14:30"},
                "notes": {"type": "string"},
                "reason": {"type": "string"},
                "parentNotified": {"type": "boolean"}
            }
        },
        "RecordAttendanceRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "records": {"type": "array", "items": {"$ref": "#/definitions/AttendanceEntry"}}
            }
        },
        "RecordViolationRequest": {
            "type": "object",
            "required": ["studentIdCode", "employeeId", "type", "severity", "description"],
            "properties": {
                "studentIdCode": {"type": "string"},
                "employeeId": {"type": "string"},
                "type": {"type": "string"},
                "severity": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "description": {"type": "string"},
                "date": {"type": "string", "format": "date"}
            }
        },
        "RecordPositiveRequest": {
            "type": "object",
            "required": ["studentIdCode", "employeeId", "type", "description"],
            "properties": {
                "studentIdCode": {"type": "string"},
                "employeeId": {"type": "string"},
                "type": {"type": "string"},
                "description": {"type": "string"},
                "points": {"type": "integer", "minimum": 0, "description": "Omitted or 0 awards 10"},
                "date": {"type": "string", "format": "date"}
            }
        },
        "ResolveViolationRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["pending", "acknowledged", "resolved", "escalated"]},
                "action": {"type": "string"},
                "points": {"type": "integer", "maximum": 0}
            }
        },
        "CreateReportRequest": {
            "type": "object",
            "required": ["title", "classId", "periodStart", "periodEnd"],
            "properties": {
                "title": {"type": "string"},
                "type": {"type": "string", "enum": ["daily", "weekly", "monthly", "semester", "annual", "custom"]},
                "grade": {"type": "string"},
                "classId": {"type": "string"},
                "periodStart": {"type": "string", "format": "date"},
                "periodEnd": {"type": "string", "format": "date"},
                "content": {"type": "string"},
                "draft": {"type": "boolean", "description": "Keep the report as a draft until submitted"}
            }
        },
        "RejectReportRequest": {
            "type": "object",
            "required": ["comments"],
            "properties": {
                "comments": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
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
