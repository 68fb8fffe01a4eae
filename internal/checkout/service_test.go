package checkout

import (
	"context"
	"errors"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sugarnest/bakery-api/internal/store"
)

func validInput() Input {
	return Input{
		CartID: uuid.NewString(),
		Address: Addr{
			ReceiverName: "Lan Pham",
			Phone:        "0901234567",
			District:     "Quan 1",
			City:         "Ho Chi Minh",
			AddressLine:  "12 Nguyen Hue",
		},
		ShippingFee: 25000,
		Email:       "lan@example.com",
	}
}

func TestCreateRequiresUser(t *testing.T) {
	svc := &Service{Store: store.New(nil), Validate: validator.New()}
	if _, err := svc.Create(context.Background(), "", validInput()); err == nil {
		t.Fatal("expected error for missing user")
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc := &Service{Store: store.New(nil), Validate: validator.New()}
	userID := uuid.NewString()

	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing cart id", func(in *Input) { in.CartID = "" }},
		{"malformed cart id", func(in *Input) { in.CartID = "not-a-uuid" }},
		{"missing receiver", func(in *Input) { in.Address.ReceiverName = "" }},
		{"missing phone", func(in *Input) { in.Address.Phone = "" }},
		{"negative shipping", func(in *Input) { in.ShippingFee = -1 }},
		{"malformed email", func(in *Input) { in.Email = "not-an-email" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), userID, in)
			var vErrs validator.ValidationErrors
			if !errors.As(err, &vErrs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
		})
	}
}

func TestCreateRejectsBadUserID(t *testing.T) {
	svc := &Service{Store: store.New(nil), Validate: validator.New()}
	if _, err := svc.Create(context.Background(), "not-a-uuid", validInput()); err == nil {
		t.Fatal("expected error for malformed user id")
	}
}
