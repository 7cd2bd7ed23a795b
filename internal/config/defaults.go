package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultBaseURL     = "https://sms5.schoolsoft.se"
	DefaultUserType    = 1 // student
	UserTypeUnset      = -1
	DefaultUserAgent   = "schoolsoft/1.0 (https://github.com/law-makers/schoolsoft)"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultProfile     = "default"
)

// Environment variables read by Load
const (
	EnvSchool    = "SCHOOLSOFT_SCHOOL"
	EnvUsername  = "SCHOOLSOFT_USERNAME"
	EnvPassword  = "SCHOOLSOFT_PASSWORD"
	EnvUserType  = "SCHOOLSOFT_USERTYPE"
	EnvBaseURL   = "SCHOOLSOFT_BASE_URL"
	EnvUserAgent = "SCHOOLSOFT_USER_AGENT"
	EnvProxy     = "SCHOOLSOFT_PROXY"
)
