package domain_test

import (
	"testing"

	"github.com/douglasshinzato/price-tagger/internal/domain"
)

func validInput() domain.OrderInput {
	return domain.OrderInput{
		ProductName:      "Arroz 5kg",
		ProductDetails:   "pacote azul",
		CurrentPrice:     23.90,
		NeedsPriceUpdate: true,
		LabelQuantity:    3,
	}
}

func TestOrderInputValidate_Ok(t *testing.T) {
	in := validInput()
	if errs := in.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderInputValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(in *domain.OrderInput)
		want error
	}{
		{
			name: "empty product name",
			mut:  func(in *domain.OrderInput) { in.ProductName = "" },
			want: domain.ErrProductNameRequired,
		},
		{
			name: "whitespace-only product name",
			mut:  func(in *domain.OrderInput) { in.ProductName = "   " },
			want: domain.ErrProductNameRequired,
		},
		{
			name: "zero price",
			mut:  func(in *domain.OrderInput) { in.CurrentPrice = 0 },
			want: domain.ErrPriceNotPositive,
		},
		{
			name: "negative price",
			mut:  func(in *domain.OrderInput) { in.CurrentPrice = -10 },
			want: domain.ErrPriceNotPositive,
		},
		{
			name: "zero quantity",
			mut:  func(in *domain.OrderInput) { in.LabelQuantity = 0 },
			want: domain.ErrQuantityInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mut(&in)

			errs := in.Validate()
			if len(errs) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
			found := false
			for _, err := range errs {
				if err == tc.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	if domain.OrderStatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	if !domain.OrderStatusCompleted.IsTerminal() {
		t.Fatal("completed must be terminal")
	}
	if !domain.OrderStatusCancelled.IsTerminal() {
		t.Fatal("cancelled must be terminal")
	}
}

func TestOrderStatus_IsValid(t *testing.T) {
	for _, s := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusCompleted,
		domain.OrderStatusCancelled,
	} {
		if !s.IsValid() {
			t.Fatalf("status %q must be valid", s)
		}
	}
	if domain.OrderStatus("shipped").IsValid() {
		t.Fatal("unknown status must be invalid")
	}
}

func TestRole_IsValid(t *testing.T) {
	if !domain.RoleAdmin.IsValid() || !domain.RoleEmployee.IsValid() {
		t.Fatal("known roles must be valid")
	}
	if domain.Role("manager").IsValid() {
		t.Fatal("unknown role must be invalid")
	}
}

func TestIsAuthError(t *testing.T) {
	for _, err := range []error{
		domain.ErrNotAuthenticated,
		domain.ErrNotOrderOwner,
		domain.ErrAdminOnly,
		domain.ErrInvalidCredentials,
	} {
		if !domain.IsAuthError(err) {
			t.Fatalf("expected %v to be an auth error", err)
		}
	}
	if domain.IsAuthError(domain.ErrPermissionDenied) {
		t.Fatal("store-side permission rejection is not an auth error")
	}
}
