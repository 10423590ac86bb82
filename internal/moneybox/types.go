package moneybox

// OnboardingRequest is the registration payload in the casing the backend expects.
type OnboardingRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	MiddleName       string `json:"middleName,omitempty"`
	MobileNumber     string `json:"mobileNumber"`
	Address          string `json:"address"`
	City             string `json:"city"`
	BVN              string `json:"bvn"`
	DOB              string `json:"dob"`
	PIN              string `json:"pin"`
	BusinessName     string `json:"bName"`
	BusinessType     string `json:"bType"`
	CACNumber        string `json:"cacNo"`
	BusinessCategory string `json:"BCategory"`
	CACDoc           string `json:"cacDoc,omitempty"`
	GovtID           string `json:"govtId,omitempty"`
	UtilityBill      string `json:"utilityBill,omitempty"`
	BizPhoto         string `json:"bizPhoto,omitempty"`
	Selfie           string `json:"selfie,omitempty"`
}

// OnboardingUser identifies the merchant created by a registration.
type OnboardingUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OnboardingData carries the core-banking identifiers of a new merchant.
type OnboardingData struct {
	CustomerID string `json:"customerId"`
	WalletID   string `json:"walletId"`
}

// OnboardingResponse is the registration result. Every field is optional.
type OnboardingResponse struct {
	User     *OnboardingUser `json:"user,omitempty"`
	WalletID string          `json:"walletId,omitempty"`
	Code     string          `json:"code,omitempty"`
	Success  *bool           `json:"success,omitempty"`
	Message  string          `json:"message,omitempty"`
	Data     *OnboardingData `json:"data,omitempty"`
}

// Succeeded reports whether the backend indicated a created user or wallet.
func (r *OnboardingResponse) Succeeded() bool {
	if r == nil {
		return false
	}
	if r.User != nil && r.User.ID != "" {
		return true
	}
	if r.WalletID != "" {
		return true
	}
	if r.Data != nil && (r.Data.WalletID != "" || r.Data.CustomerID != "") {
		return true
	}
	return r.Success != nil && *r.Success
}

// LoginRequest holds merchant credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser is the account snapshot returned at login.
type LoginUser struct {
	Email    string `json:"email"`
	Balance  string `json:"balance"`
	AcctNo   string `json:"acctNo"`
	BankName string `json:"bankName"`
	Name     string `json:"name"`
}

// LoginResponse is the login result.
type LoginResponse struct {
	User        LoginUser `json:"user"`
	AccessToken string    `json:"accessToken"`
}

type nameEnquiryRequest struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
}

type nameEnquiryResponse struct {
	AccountName string `json:"accountName"`
	Message     string `json:"message"`
}

type verifyPINRequest struct {
	PIN string `json:"pin"`
}

type verifyPINResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}
