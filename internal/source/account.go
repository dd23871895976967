package source

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the institution an account belongs to.
// Values match the israeli-bank-scrapers company ids.
type Kind string

const (
	KindHapoalim         Kind = "hapoalim"
	KindLeumi            Kind = "leumi"
	KindDiscount         Kind = "discount"
	KindMercantile       Kind = "mercantile"
	KindMizrahi          Kind = "mizrahi"
	KindOtsarHahayal     Kind = "otsarHahayal"
	KindVisaCal          Kind = "visaCal"
	KindMax              Kind = "max"
	KindIsracard         Kind = "isracard"
	KindAmex             Kind = "amex"
	KindUnion            Kind = "union"
	KindBeinleumi        Kind = "beinleumi"
	KindMassad           Kind = "massad"
	KindYahav            Kind = "yahav"
	KindBeyahadBishvilha Kind = "beyahadBishvilha"
	KindOneZero          Kind = "oneZero"
	KindBehatsdaa        Kind = "behatsdaa"
	KindPagi             Kind = "pagi"
)

// loginFields lists the credentials each kind requires.
var loginFields = map[Kind][]string{
	KindHapoalim:         {"userCode", "password"},
	KindLeumi:            {"username", "password"},
	KindDiscount:         {"id", "password", "num"},
	KindMercantile:       {"id", "password", "num"},
	KindMizrahi:          {"username", "password"},
	KindOtsarHahayal:     {"username", "password"},
	KindVisaCal:          {"username", "password"},
	KindMax:              {"username", "password"},
	KindIsracard:         {"id", "card6Digits", "password"},
	KindAmex:             {"id", "card6Digits", "password"},
	KindUnion:            {"username", "password"},
	KindBeinleumi:        {"username", "password"},
	KindMassad:           {"username", "password"},
	KindYahav:            {"username", "id", "password"},
	KindBeyahadBishvilha: {"id", "password"},
	KindOneZero:          {"email", "password"},
	KindBehatsdaa:        {"id", "password"},
	KindPagi:             {"username", "password"},
}

// Kinds returns every supported kind, sorted.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(loginFields))
	for k := range loginFields {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Credentials holds login fields for every supported kind.
// Each kind uses a subset; see Account.Validate.
type Credentials struct {
	Username         string `yaml:"username,omitempty" json:"username,omitempty"`
	Password         string `yaml:"password,omitempty" json:"password,omitempty"`
	UserCode         string `yaml:"userCode,omitempty" json:"userCode,omitempty"`
	ID               string `yaml:"id,omitempty" json:"id,omitempty"`
	Card6Digits      string `yaml:"card6Digits,omitempty" json:"card6Digits,omitempty"`
	Num              string `yaml:"num,omitempty" json:"num,omitempty"`
	Email            string `yaml:"email,omitempty" json:"email,omitempty"`
	PhoneNumber      string `yaml:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	OTPLongTermToken string `yaml:"otpLongTermToken,omitempty" json:"otpLongTermToken,omitempty"`
}

func (c Credentials) field(name string) string {
	switch name {
	case "username":
		return c.Username
	case "password":
		return c.Password
	case "userCode":
		return c.UserCode
	case "id":
		return c.ID
	case "card6Digits":
		return c.Card6Digits
	case "num":
		return c.Num
	case "email":
		return c.Email
	case "phoneNumber":
		return c.PhoneNumber
	case "otpLongTermToken":
		return c.OTPLongTermToken
	}
	return ""
}

// Account describes one source to poll. It is supplied by configuration and
// never mutated by the engine.
type Account struct {
	Kind        Kind        `yaml:"kind"`
	Label       string      `yaml:"label,omitempty"`
	Credentials Credentials `yaml:",inline"`
}

// Name returns the label, or the kind when no label is set.
func (a Account) Name() string {
	if a.Label != "" {
		return a.Label
	}
	return string(a.Kind)
}

// String never includes credentials, so accounts are safe to log.
func (a Account) String() string {
	return a.Name()
}

// Validate checks that the kind is known and that every credential it
// requires is present.
func (a Account) Validate() error {
	required, ok := loginFields[a.Kind]
	if !ok {
		return fmt.Errorf("account %q: unknown kind %q", a.Name(), a.Kind)
	}

	var missing []string
	for _, name := range required {
		if strings.TrimSpace(a.Credentials.field(name)) == "" {
			missing = append(missing, name)
		}
	}

	// oneZero logs in with an OTP: either a phone number to receive one or a
	// long-term token from a previous login.
	if a.Kind == KindOneZero && a.Credentials.PhoneNumber == "" && a.Credentials.OTPLongTermToken == "" {
		missing = append(missing, "phoneNumber|otpLongTermToken")
	}

	if len(missing) > 0 {
		return fmt.Errorf("account %q (%s): missing credentials: %s", a.Name(), a.Kind, strings.Join(missing, ", "))
	}
	return nil
}
