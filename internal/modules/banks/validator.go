package banks

import (
	"strings"
)

// BankAccount is the payout destination a vendor registers for withdrawals.
type BankAccount struct {
	BankName      string
	AccountNumber string
	IBAN          string
	Verified      bool
}

// Banks we can settle to. Kept as data, not config: adding a bank is a code
// review, not an env change.
var allowedBanks = map[string]struct{}{
	"National Bank of Egypt": {},
	"Banque Misr":            {},
	"CIB":                    {},
	"QNB Alahli":             {},
	"AAIB":                   {},
	"HSBC Egypt":             {},
	"Banque du Caire":        {},
	"Alex Bank":              {},
}

const (
	minAccountDigits = 6
	maxAccountDigits = 20
)

// ValidateBankAccount checks the bank is allow-listed, the account number is
// numeric and of plausible length, and the IBAN passes the MOD-97 checksum.
func ValidateBankAccount(a BankAccount) bool {
	if !IsAllowedBank(a.BankName) {
		return false
	}
	if !validAccountNumber(a.AccountNumber) {
		return false
	}
	return ValidateIBAN(a.IBAN)
}

// IsAllowedBank reports whether the bank is on the settlement allow list.
func IsAllowedBank(name string) bool {
	_, ok := allowedBanks[strings.TrimSpace(name)]
	return ok
}

func validAccountNumber(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < minAccountDigits || len(s) > maxAccountDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateIBAN validates structure (country code, check digits, BBAN) and the
// ISO 7064 MOD-97-10 checksum: the IBAN rearranged with its first four
// characters moved to the end, letters expanded A=10..Z=35, must leave
// remainder 1 mod 97. Computed incrementally so arbitrary lengths need no
// big integers.
func ValidateIBAN(iban string) bool {
	s := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	if !isLetter(s[0]) || !isLetter(s[1]) || !isDigit(s[2]) || !isDigit(s[3]) {
		return false
	}
	for i := 4; i < len(s); i++ {
		if !isLetter(s[i]) && !isDigit(s[i]) {
			return false
		}
	}

	rearranged := s[4:] + s[:4]
	rem := 0
	for i := 0; i < len(rearranged); i++ {
		c := rearranged[i]
		if isDigit(c) {
			rem = (rem*10 + int(c-'0')) % 97
		} else {
			v := int(c-'A') + 10
			rem = (rem*100 + v) % 97
		}
	}
	return rem == 1
}

func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
