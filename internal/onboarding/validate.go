package onboarding

import (
	"regexp"
	"strings"
)

const (
	MsgPersonalRequired  = "Please fill in all required personal details"
	MsgPINFormat         = "PIN must be exactly 4 digits"
	MsgBVNFormat         = "BVN must be exactly 11 digits"
	MsgMobileCountryCode = "Mobile number must include country code (e.g. +234)"
	MsgBusinessRequired  = "Please fill in all business details"
	MsgDocumentErrors    = "Please fix the highlighted document errors"
	MsgDocumentsMissing  = "Please upload all required documents"
)

var (
	pinPattern = regexp.MustCompile(`^\d{4}$`)
	bvnPattern = regexp.MustCompile(`^\d{11}$`)
)

var personalRequired = []Field{
	FieldEmail, FieldPassword, FieldFirstName, FieldLastName, FieldMobileNumber,
	FieldAddress, FieldCity, FieldBVN, FieldDOB, FieldPIN,
}

var businessRequired = []Field{
	FieldBusinessName, FieldBusinessType, FieldCACNumber, FieldBusinessCategory,
}

// ValidatePersonal returns the message for the first unmet category, or "".
func ValidatePersonal(f Form) string {
	if !allPresent(f, personalRequired) {
		return MsgPersonalRequired
	}
	if !pinPattern.MatchString(f.get(FieldPIN)) {
		return MsgPINFormat
	}
	if !bvnPattern.MatchString(f.get(FieldBVN)) {
		return MsgBVNFormat
	}
	if !strings.HasPrefix(strings.TrimSpace(f.get(FieldMobileNumber)), "+") {
		return MsgMobileCountryCode
	}
	return ""
}

func ValidateBusiness(f Form) string {
	if !allPresent(f, businessRequired) {
		return MsgBusinessRequired
	}
	return ""
}

// ValidateDocuments checks outstanding per-document errors before presence.
func ValidateDocuments[T any](present map[DocumentField]T, docErrors map[DocumentField]string) string {
	for _, msg := range docErrors {
		if msg != "" {
			return MsgDocumentErrors
		}
	}
	for _, d := range RequiredDocuments {
		if _, ok := present[d]; !ok {
			return MsgDocumentsMissing
		}
	}
	return ""
}

func allPresent(f Form, fields []Field) bool {
	for _, field := range fields {
		if strings.TrimSpace(f.get(field)) == "" {
			return false
		}
	}
	return true
}
