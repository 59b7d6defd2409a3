package models

import "testing"

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"full name", User{Name: "Asha Rao", Email: "asha@example.com", Sub: "sub-1"}, "Asha Rao"},
		{"email fallback", User{Email: "asha@example.com", Sub: "sub-1"}, "asha@example.com"},
		{"sub fallback", User{Sub: "sub-1"}, "sub-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserPublic(t *testing.T) {
	u := User{Name: "Asha Rao", Email: "asha@example.com", Sub: "sub-1", Picture: "https://img"}
	pub := u.Public()
	if pub.Name != "Asha Rao" || pub.Email != "asha@example.com" {
		t.Errorf("Public() = %+v", pub)
	}
}

func TestIsValidVitalType(t *testing.T) {
	for _, vt := range VitalTypes {
		if !IsValidVitalType(vt) {
			t.Errorf("IsValidVitalType(%q) = false, want true", vt)
		}
	}
	if IsValidVitalType("temperature") {
		t.Error("IsValidVitalType(temperature) = true, want false")
	}
}
