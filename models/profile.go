package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is the primary personal-data record: one row per individual,
// identified by a generated opaque id plus an externally supplied uid.
// uid and email are unique across all profiles; violating inserts or
// updates surface as a conflict to the caller.
type Profile struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UID string `gorm:"column:uid;size:64;not null;uniqueIndex" json:"uid"`

	// identity
	FirstName      string `gorm:"column:first_name;size:255" json:"firstName"`
	MiddleName     string `gorm:"column:middle_name;size:255" json:"middleName"`
	LastName       string `gorm:"column:last_name;size:255" json:"lastName"`
	DOB            string `gorm:"column:dob;size:32" json:"dob"`
	Gender         string `gorm:"column:gender;size:32" json:"gender"`
	Nationality    string `gorm:"column:nationality;size:64" json:"nationality"`
	MaritalStatus  string `gorm:"column:marital_status;size:32" json:"maritalStatus"`
	PANNumber      string `gorm:"column:pan_number;size:32" json:"panNumber"`
	AadhaarNumber  string `gorm:"column:aadhaar_number;size:32" json:"aadhaarNumber"`
	PassportNumber string `gorm:"column:passport_number;size:32" json:"passportNumber"`
	DrivingLicense string `gorm:"column:driving_license;size:64" json:"drivingLicense"`
	VoterID        string `gorm:"column:voter_id;size:32" json:"voterId"`

	// address
	PermanentAddress string `gorm:"column:permanent_address;size:512" json:"permanentAddress"`
	PermanentCity    string `gorm:"column:permanent_city;size:128" json:"permanentCity"`
	PermanentState   string `gorm:"column:permanent_state;size:128" json:"permanentState"`
	PermanentPincode string `gorm:"column:permanent_pincode;size:16" json:"permanentPincode"`
	CurrentAddress   string `gorm:"column:current_address;size:512" json:"currentAddress"`
	CurrentCity      string `gorm:"column:current_city;size:128" json:"currentCity"`
	CurrentState     string `gorm:"column:current_state;size:128" json:"currentState"`
	CurrentPincode   string `gorm:"column:current_pincode;size:16" json:"currentPincode"`

	// contact
	Phone            string `gorm:"column:phone;size:32" json:"phone"`
	AlternatePhone   string `gorm:"column:alternate_phone;size:32" json:"alternatePhone"`
	Email            string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PreferredContact string `gorm:"column:preferred_contact;size:32" json:"preferredContact"`

	// financial
	BankName      string `gorm:"column:bank_name;size:255" json:"bankName"`
	AccountNumber string `gorm:"column:account_number;size:64" json:"accountNumber"`
	IFSCCode      string `gorm:"column:ifsc_code;size:32" json:"ifscCode"`
	AccountType   string `gorm:"column:account_type;size:32" json:"accountType"`
	CardNumber    string `gorm:"column:card_number;size:32" json:"cardNumber"`
	CardExpiry    string `gorm:"column:card_expiry;size:16" json:"cardExpiry"`
	AnnualIncome  string `gorm:"column:annual_income;size:32" json:"annualIncome"`
	TaxID         string `gorm:"column:tax_id;size:64" json:"taxId"`

	// employment
	Occupation     string `gorm:"column:occupation;size:255" json:"occupation"`
	EmployerName   string `gorm:"column:employer_name;size:255" json:"employerName"`
	Designation    string `gorm:"column:designation;size:255" json:"designation"`
	WorkAddress    string `gorm:"column:work_address;size:512" json:"workAddress"`
	WorkExperience string `gorm:"column:work_experience;size:64" json:"workExperience"`

	// family and nominee
	FatherName      string `gorm:"column:father_name;size:255" json:"fatherName"`
	MotherName      string `gorm:"column:mother_name;size:255" json:"motherName"`
	SpouseName      string `gorm:"column:spouse_name;size:255" json:"spouseName"`
	NomineeName     string `gorm:"column:nominee_name;size:255" json:"nomineeName"`
	NomineeRelation string `gorm:"column:nominee_relation;size:64" json:"nomineeRelation"`
	NomineeContact  string `gorm:"column:nominee_contact;size:32" json:"nomineeContact"`
	NomineeDOB      string `gorm:"column:nominee_dob;size:32" json:"nomineeDob"`

	// health
	BloodGroup            string `gorm:"column:blood_group;size:8" json:"bloodGroup"`
	Allergies             string `gorm:"column:allergies;size:512" json:"allergies"`
	MedicalConditions     string `gorm:"column:medical_conditions;size:512" json:"medicalConditions"`
	Medications           string `gorm:"column:medications;size:512" json:"medications"`
	EmergencyContactName  string `gorm:"column:emergency_contact_name;size:255" json:"emergencyContactName"`
	EmergencyContactPhone string `gorm:"column:emergency_contact_phone;size:32" json:"emergencyContactPhone"`
	InsuranceProvider     string `gorm:"column:insurance_provider;size:255" json:"insuranceProvider"`
	InsurancePolicyNumber string `gorm:"column:insurance_policy_number;size:64" json:"insurancePolicyNumber"`

	// misc
	Category string `gorm:"column:category;size:64" json:"category"`
	Notes    string `gorm:"column:notes;size:1024" json:"notes"`
	Consent  bool   `gorm:"column:consent;not null;default:false" json:"consent"`

	// file references, relative to the public root (e.g. /uploads/<name>).
	// Deleting a profile does not remove the files behind these paths.
	IDDocument string `gorm:"column:id_document;size:512" json:"idDocument"`
	Photo      string `gorm:"column:photo;size:512" json:"photo"`
	Signature  string `gorm:"column:signature;size:512" json:"signature"`
}

// BeforeCreate assigns an id for struct-based inserts (seeds, tools). The
// HTTP create path generates the id itself because it inserts from a map.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
