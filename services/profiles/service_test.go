package profiles_test

import (
	"errors"
	"testing"

	"anivault/models"
	"anivault/services/profiles"
)

func newService(t *testing.T) *profiles.Service {
	t.Helper()
	svc, err := profiles.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestServiceBootstrapsDefaultAdmin(t *testing.T) {
	svc := newService(t)

	list := svc.List()
	if len(list) != 1 {
		t.Fatalf("expected exactly one profile, got %d", len(list))
	}
	if list[0].Role != models.RoleAdmin {
		t.Fatalf("expected bootstrap profile to be admin, got %q", list[0].Role)
	}
	if list[0].Username != profiles.DefaultAdminUsername {
		t.Fatalf("expected username %q, got %q", profiles.DefaultAdminUsername, list[0].Username)
	}
}

func TestCreateUsesSuppliedID(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create(models.ProfileCreate{ID: "auth0|abc", Username: "kaz"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if created.ID != "auth0|abc" {
		t.Fatalf("expected supplied id to be kept, got %q", created.ID)
	}
	if created.Role != models.RoleUser {
		t.Fatalf("expected new profile to default to user role, got %q", created.Role)
	}

	_, err = svc.Create(models.ProfileCreate{ID: "auth0|abc"})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict for duplicate id, got %v", err)
	}
}

func TestUpdateLeavesRoleAlone(t *testing.T) {
	svc := newService(t)
	created, err := svc.Create(models.ProfileCreate{Username: "kaz"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	name := "kazuko"
	updated, err := svc.Update(created.ID, models.ProfileUpdate{Username: &name})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if updated.Username != "kazuko" {
		t.Fatalf("expected username to change, got %q", updated.Username)
	}
	if updated.Role != created.Role {
		t.Fatalf("expected role untouched by profile update, got %q", updated.Role)
	}
}

func TestUpdateRole(t *testing.T) {
	svc := newService(t)
	created, err := svc.Create(models.ProfileCreate{Username: "kaz"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	promoted, err := svc.UpdateRole(created.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("update role returned error: %v", err)
	}
	if promoted.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %q", promoted.Role)
	}

	if _, err := svc.UpdateRole(created.ID, "owner"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
	if _, err := svc.UpdateRole("missing", models.RoleAdmin); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found for unknown profile, got %v", err)
	}
}

func TestRoleOfUnknownProfileIsUser(t *testing.T) {
	svc := newService(t)

	if role := svc.Role("missing"); role != models.RoleUser {
		t.Fatalf("expected unknown profile to resolve to user role, got %q", role)
	}
}

func TestDeleteAndRestore(t *testing.T) {
	svc := newService(t)
	created, err := svc.Create(models.ProfileCreate{Username: "kaz"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	removed, err := svc.Delete(created.ID)
	if err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if svc.Exists(created.ID) {
		t.Fatal("expected profile to be gone after delete")
	}

	if err := svc.Restore(removed); err != nil {
		t.Fatalf("restore returned error: %v", err)
	}
	if !svc.Exists(created.ID) {
		t.Fatal("expected profile to exist after restore")
	}
}
