package onboarding

import (
	"errors"
	"fmt"

	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/upload"
)

// Field identifies a text field of the onboarding form. Values use the
// casing the backend expects.
type Field string

const (
	FieldEmail            Field = "email"
	FieldPassword         Field = "password"
	FieldFirstName        Field = "firstName"
	FieldLastName         Field = "lastName"
	FieldMiddleName       Field = "middleName"
	FieldMobileNumber     Field = "mobileNumber"
	FieldAddress          Field = "address"
	FieldCity             Field = "city"
	FieldBVN              Field = "bvn"
	FieldDOB              Field = "dob"
	FieldPIN              Field = "pin"
	FieldBusinessName     Field = "bName"
	FieldBusinessType     Field = "bType"
	FieldCACNumber        Field = "cacNo"
	FieldBusinessCategory Field = "BCategory"
)

var allFields = []Field{
	FieldEmail, FieldPassword, FieldFirstName, FieldLastName, FieldMiddleName,
	FieldMobileNumber, FieldAddress, FieldCity, FieldBVN, FieldDOB, FieldPIN,
	FieldBusinessName, FieldBusinessType, FieldCACNumber, FieldBusinessCategory,
}

var fieldSet = func() map[Field]struct{} {
	m := make(map[Field]struct{}, len(allFields))
	for _, f := range allFields {
		m[f] = struct{}{}
	}
	return m
}()

var ErrUnknownField = errors.New("unknown onboarding field")

// ParseField maps a wire name onto the closed field enumeration.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := fieldSet[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// Secret reports whether the value must not be echoed back to clients.
func (f Field) Secret() bool {
	return f == FieldPassword || f == FieldPIN
}

// DocumentField identifies an upload slot.
type DocumentField string

const (
	DocCAC         DocumentField = "cacDoc"
	DocGovtID      DocumentField = "govtId"
	DocUtilityBill DocumentField = "utilityBill"
	DocBizPhoto    DocumentField = "bizPhoto"
	DocSelfie      DocumentField = "selfie"
)

// RequiredDocuments must all be present before submission. The selfie is optional.
var RequiredDocuments = []DocumentField{DocCAC, DocGovtID, DocUtilityBill, DocBizPhoto}

// AllDocuments lists every upload slot in display order.
var AllDocuments = []DocumentField{DocCAC, DocGovtID, DocUtilityBill, DocBizPhoto, DocSelfie}

var (
	documentAccept = upload.ParseAccept(".pdf,.jpg,.jpeg,.png")
	imageAccept    = upload.ParseAccept("image/*")
)

var documentLabels = map[DocumentField]string{
	DocCAC:         "CAC Certificate",
	DocGovtID:      "Valid Government ID",
	DocUtilityBill: "Utility Bill",
	DocBizPhoto:    "Business/Location Photo",
	DocSelfie:      "Selfie",
}

var ErrUnknownDocument = errors.New("unknown document field")

func ParseDocumentField(name string) (DocumentField, error) {
	d := DocumentField(name)
	if _, ok := documentLabels[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDocument, name)
	}
	return d, nil
}

// Accept returns the patterns a selection for d must match.
func (d DocumentField) Accept() upload.Accept {
	switch d {
	case DocBizPhoto, DocSelfie:
		return imageAccept
	default:
		return documentAccept
	}
}

func (d DocumentField) Label() string {
	return documentLabels[d]
}

// Choices offered by the business step.
var (
	BusinessTypes = []string{
		"Sole Proprietorship",
		"Limited Liability",
		"Partnership",
		"Enterprise",
	}
	BusinessCategories = []string{
		"Retail",
		"Food & Beverages",
		"Electronics",
		"Fashion",
		"Phone & Data",
		"General Merchandise",
		"Others",
	}
)

// Form holds the text values of the wizard keyed by the closed field set.
type Form map[Field]string

func (f Form) get(field Field) string { return f[field] }

func (f Form) clone() Form {
	out := make(Form, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Public returns the values safe to echo, with secrets replaced by a mask.
func (f Form) Public() map[string]string {
	out := make(map[string]string, len(f))
	for k, v := range f {
		if k.Secret() && v != "" {
			v = "****"
		}
		out[string(k)] = v
	}
	return out
}

// buildRequest assembles the registration payload from the form and the
// base64-encoded documents.
func buildRequest(f Form, docs map[DocumentField]string) moneybox.OnboardingRequest {
	return moneybox.OnboardingRequest{
		Email:            f.get(FieldEmail),
		Password:         f.get(FieldPassword),
		FirstName:        f.get(FieldFirstName),
		LastName:         f.get(FieldLastName),
		MiddleName:       f.get(FieldMiddleName),
		MobileNumber:     f.get(FieldMobileNumber),
		Address:          f.get(FieldAddress),
		City:             f.get(FieldCity),
		BVN:              f.get(FieldBVN),
		DOB:              f.get(FieldDOB),
		PIN:              f.get(FieldPIN),
		BusinessName:     f.get(FieldBusinessName),
		BusinessType:     f.get(FieldBusinessType),
		CACNumber:        f.get(FieldCACNumber),
		BusinessCategory: f.get(FieldBusinessCategory),
		CACDoc:           docs[DocCAC],
		GovtID:           docs[DocGovtID],
		UtilityBill:      docs[DocUtilityBill],
		BizPhoto:         docs[DocBizPhoto],
		Selfie:           docs[DocSelfie],
	}
}
