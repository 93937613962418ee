package domain

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)
	zipPattern   = regexp.MustCompile(`^\d{6}$`)
)

// Address is an immutable postal address with contact details.
type Address struct {
	Province     string `json:"province"`
	City         string `json:"city"`
	District     string `json:"district"`
	Street       string `json:"street"`
	ZipCode      string `json:"zip_code"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
}

func NewAddress(province, city, district, street, zipCode, contactName, contactPhone string) (Address, error) {
	a := Address{
		Province:     province,
		City:         city,
		District:     district,
		Street:       street,
		ZipCode:      zipCode,
		ContactName:  contactName,
		ContactPhone: contactPhone,
	}

	if err := a.Validate(); err != nil {
		return Address{}, err
	}

	return a, nil
}

func (a Address) Validate() error {
	if a.Province == "" {
		return errors.New("province is empty")
	}

	if a.City == "" {
		return errors.New("city is empty")
	}

	if a.Street == "" {
		return errors.New("street is empty")
	}

	if a.ContactName == "" {
		return errors.New("contact name is empty")
	}

	if !phonePattern.MatchString(a.ContactPhone) {
		return fmt.Errorf("contact phone[%s] is not valid", a.ContactPhone)
	}

	if a.ZipCode != "" && !zipPattern.MatchString(a.ZipCode) {
		return fmt.Errorf("zip code[%s] is not valid", a.ZipCode)
	}

	return nil
}

func (a Address) Equal(other Address) bool {
	return a == other
}

func (a Address) IsZero() bool {
	return a == Address{}
}
