package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	valid := Address{
		Province:     "北京市",
		City:         "北京",
		District:     "朝阳区",
		Street:       "建国路88号",
		ZipCode:      "100022",
		ContactName:  "张三",
		ContactPhone: "13800138000",
	}

	tests := []struct {
		name      string
		mutate    func(a Address) Address
		wantError string
	}{
		{
			name:   "valid address: ok",
			mutate: func(a Address) Address { return a },
		},
		{
			name:   "empty zip code: ok",
			mutate: func(a Address) Address { a.ZipCode = ""; return a },
		},
		{
			name:      "empty province: fail",
			mutate:    func(a Address) Address { a.Province = ""; return a },
			wantError: "province is empty",
		},
		{
			name:      "empty city: fail",
			mutate:    func(a Address) Address { a.City = ""; return a },
			wantError: "city is empty",
		},
		{
			name:      "empty street: fail",
			mutate:    func(a Address) Address { a.Street = ""; return a },
			wantError: "street is empty",
		},
		{
			name:      "empty contact name: fail",
			mutate:    func(a Address) Address { a.ContactName = ""; return a },
			wantError: "contact name is empty",
		},
		{
			name:      "landline phone: fail",
			mutate:    func(a Address) Address { a.ContactPhone = "01088888888"; return a },
			wantError: "contact phone[01088888888] is not valid",
		},
		{
			name:      "short phone: fail",
			mutate:    func(a Address) Address { a.ContactPhone = "138001380"; return a },
			wantError: "contact phone[138001380] is not valid",
		},
		{
			name:      "short zip code: fail",
			mutate:    func(a Address) Address { a.ZipCode = "1000"; return a },
			wantError: "zip code[1000] is not valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.mutate(valid)

			got, err := NewAddress(a.Province, a.City, a.District, a.Street, a.ZipCode, a.ContactName, a.ContactPhone)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			require.True(t, got.Equal(a))
		})
	}
}
