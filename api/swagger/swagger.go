package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIAKAD Madrasah API",
        "description": "School administration backend: student lifecycle, rombel management and score reporting",
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
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Students", "description": "Student records and lifecycle"},
        {"name": "Rombels", "description": "Class-group management and promotion"},
        {"name": "Scores", "description": "Assessment types and score entry"},
        {"name": "Exports", "description": "CSV and PDF downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["ACTIVE", "GRADUATE", "MUTASI"]},
                    {"name": "rombel_id", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/graduate": {
            "post": {
                "tags": ["Students"],
                "summary": "Graduate a student",
                "description": "Marks an ACTIVE student as GRADUATE, closes the rombel membership and records an archive entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GraduateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found"},
                    "409": {"description": "Student is not ACTIVE"}
                }
            }
        },
        "/students/graduate": {
            "post": {
                "tags": ["Students"],
                "summary": "Graduate students in bulk",
                "description": "Processes each student independently and reports per-student outcomes",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkGraduateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/mutasi": {
            "post": {
                "tags": ["Students"],
                "summary": "Withdraw a student",
                "description": "Marks an ACTIVE student as MUTASI and records the transfer in the archive",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WithdrawStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Student is not ACTIVE"}
                }
            }
        },
        "/students/{id}/history": {
            "get": {
                "tags": ["Students"],
                "summary": "Get lifecycle history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No history recorded"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update clerical history fields",
                "description": "Corrects certificate number or final grade on a GRADUATE student's archive entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateHistoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Student is not GRADUATE"}
                }
            }
        },
        "/rombels": {
            "get": {
                "tags": ["Rombels"],
                "summary": "List rombels",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "class_id", "in": "query", "type": "integer"},
                    {"name": "academic_year_id", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rombels"],
                "summary": "Register rombels",
                "description": "Creates class groups in batch, optionally with pre-assigned rosters",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRombelRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Roster exceeds capacity"}
                }
            }
        },
        "/rombels/{id}/students": {
            "get": {
                "tags": ["Rombels"],
                "summary": "List active members",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rombels"],
                "summary": "Add students",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddStudentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Batch exceeds free capacity"}
                }
            }
        },
        "/rombels/promote": {
            "post": {
                "tags": ["Rombels"],
                "summary": "Promote students",
                "description": "Moves students into the target group; per-student outcomes are reported",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PromoteStudentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Target rombel not found"},
                    "409": {"description": "Batch exceeds free capacity"}
                }
            }
        },
        "/rombels/promotion-targets": {
            "get": {
                "tags": ["Rombels"],
                "summary": "List promotion targets",
                "parameters": [
                    {"name": "class_id", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores": {
            "put": {
                "tags": ["Scores"],
                "summary": "Record or update a score",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/scores/{class_subject_id}": {
            "get": {
                "tags": ["Scores"],
                "summary": "Per-subject score report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "class_subject_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rombels/{id}/export/roster": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download roster CSV",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "nisn": {"type": "string"},
                "nis": {"type": "string"},
                "full_name": {"type": "string"},
                "gender": {"type": "string", "enum": ["L", "P"]},
                "birth_place": {"type": "string"},
                "birth_date": {"type": "string"},
                "address": {"type": "string"},
                "phone": {"type": "string"},
                "guardian_name": {"type": "string"}
            },
            "required": ["nisn", "nis", "full_name", "gender", "birth_date"]
        },
        "GraduateStudentRequest": {
            "type": "object",
            "properties": {
                "completion_date": {"type": "string"},
                "graduation_year": {"type": "string"},
                "certificate_number": {"type": "string"},
                "final_grade": {"type": "number"},
                "scores": {"type": "object"}
            },
            "required": ["completion_date", "graduation_year"]
        },
        "BulkGraduateRequest": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/BulkGraduateItem"}},
                "completion_date": {"type": "string"},
                "graduation_year": {"type": "string"}
            },
            "required": ["items", "completion_date", "graduation_year"]
        },
        "BulkGraduateItem": {
            "type": "object",
            "properties": {
                "student_id": {"type": "integer"},
                "certificate_number": {"type": "string"},
                "final_grade": {"type": "number"}
            },
            "required": ["student_id"]
        },
        "WithdrawStudentRequest": {
            "type": "object",
            "properties": {
                "completion_date": {"type": "string"},
                "mutasi_type": {"type": "string"},
                "destination_school": {"type": "string"}
            },
            "required": ["completion_date", "mutasi_type"]
        },
        "UpdateHistoryRequest": {
            "type": "object",
            "properties": {
                "certificate_number": {"type": "string"},
                "final_grade": {"type": "number"},
                "scores": {"type": "object"},
                "graduation_year": {"type": "string"},
                "completion_date": {"type": "string"}
            }
        },
        "RegisterRombelRequest": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/RegisterRombelItem"}}
            },
            "required": ["items"]
        },
        "RegisterRombelItem": {
            "type": "object",
            "properties": {
                "nama_rombel": {"type": "string"},
                "tingkat_kelas": {"type": "integer"},
                "wali_kelas": {"type": "integer"},
                "nama_ruangan": {"type": "string"},
                "student_capacity": {"type": "integer"},
                "kurikulum": {"type": "integer"},
                "siswa": {"type": "array", "items": {"type": "integer"}}
            },
            "required": ["nama_rombel", "tingkat_kelas"]
        },
        "AddStudentsRequest": {
            "type": "object",
            "properties": {
                "student_ids": {"type": "array", "items": {"type": "integer"}}
            },
            "required": ["student_ids"]
        },
        "PromoteStudentsRequest": {
            "type": "object",
            "properties": {
                "student_ids": {"type": "array", "items": {"type": "integer"}},
                "target_rombel_id": {"type": "integer"}
            },
            "required": ["student_ids", "target_rombel_id"]
        },
        "UpsertScoreRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "integer"},
                "class_subject_id": {"type": "integer"},
                "assessment_type_id": {"type": "integer"},
                "score": {"type": "number"}
            },
            "required": ["student_id", "class_subject_id", "assessment_type_id"]
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
