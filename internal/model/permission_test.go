package model

import "testing"

func TestValidatePermissions(t *testing.T) {
	tests := []struct {
		name    string
		perms   []Permission
		wantErr bool
	}{
		{"single read", []Permission{PermissionRead}, false},
		{"full set", []Permission{PermissionRead, PermissionWrite, PermissionAdmin}, false},
		{"empty", []Permission{}, true},
		{"nil", nil, true},
		{"unknown", []Permission{"owner"}, true},
		{"duplicate", []Permission{PermissionRead, PermissionRead}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePermissions(tt.perms)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePermissions(%v) error = %v, wantErr %v", tt.perms, err, tt.wantErr)
			}
		})
	}
}

func TestHasWrite(t *testing.T) {
	if HasWrite([]Permission{PermissionRead}) {
		t.Error("read-only set should not grant write")
	}
	if !HasWrite([]Permission{PermissionRead, PermissionWrite}) {
		t.Error("set with write should grant write")
	}
	if !HasWrite([]Permission{PermissionAdmin}) {
		t.Error("admin should grant write")
	}
	if HasWrite(nil) {
		t.Error("empty set should not grant write")
	}
}
