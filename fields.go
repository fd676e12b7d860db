package main

import (
	"strings"
	"unicode"
)

// requiredProfileFields are checked in order on create; the first missing one
// is reported back to the client.
var requiredProfileFields = []string{
	"uid", "firstName", "lastName", "dob", "gender", "phone", "email",
}

// profileFormFields is the allow-list of text fields accepted on create and
// update. Form keys not listed here are ignored. The consent flag and the
// file fields are handled separately.
var profileFormFields = []string{
	// identity
	"uid", "firstName", "middleName", "lastName", "dob", "gender",
	"nationality", "maritalStatus", "panNumber", "aadhaarNumber",
	"passportNumber", "drivingLicense", "voterId",
	// address
	"permanentAddress", "permanentCity", "permanentState", "permanentPincode",
	"currentAddress", "currentCity", "currentState", "currentPincode",
	// contact
	"phone", "alternatePhone", "email", "preferredContact",
	// financial
	"bankName", "accountNumber", "ifscCode", "accountType",
	"cardNumber", "cardExpiry", "annualIncome", "taxId",
	// employment
	"occupation", "employerName", "designation", "workAddress", "workExperience",
	// family and nominee
	"fatherName", "motherName", "spouseName",
	"nomineeName", "nomineeRelation", "nomineeContact", "nomineeDob",
	// health
	"bloodGroup", "allergies", "medicalConditions", "medications",
	"emergencyContactName", "emergencyContactPhone",
	"insuranceProvider", "insurancePolicyNumber",
	// misc
	"category", "notes",
}

// profileFileFields are the multipart file parts routed through pkg/ingest.
var profileFileFields = []string{"idDocument", "photo", "signature"}

// columnFor maps a camelCase form key onto its database column. Form keys use
// single-capital word boundaries, so a plain camel-to-snake conversion matches
// the column tags on models.Profile.
func columnFor(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
