package store

import (
	"testing"

	"github.com/dmelo/feirinha/internal/model"
)

func createTestUser(t *testing.T, us *UserStore, email string) *model.User {
	t.Helper()
	u, err := us.Create(email, "Test", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestListCreateAddsOwnerMember(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ls := NewListStore(db)

	owner := createTestUser(t, us, "dono@example.com")
	list, err := ls.Create("Feira da semana", owner.ID, owner.Email)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if list.OwnerID != owner.ID {
		t.Errorf("owner id = %d, want %d", list.OwnerID, owner.ID)
	}

	m, err := ls.GetMember(list.ID, owner.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m == nil {
		t.Fatal("owner is not a member")
	}
	if m.Role != model.RoleOwner {
		t.Errorf("role = %q, want owner", m.Role)
	}
}

func TestListMembership(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ls := NewListStore(db)

	owner := createTestUser(t, us, "dono@example.com")
	friend := createTestUser(t, us, "amigo@example.com")
	list, _ := ls.Create("Churrasco", owner.ID, owner.Email)

	if _, err := ls.AddMember(list.ID, friend.ID, model.RoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}

	members, err := ls.ListMembers(list.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}

	lists, err := ls.ListForUser(friend.ID)
	if err != nil {
		t.Fatalf("lists for user: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != list.ID {
		t.Errorf("lists for friend = %+v", lists)
	}

	if err := ls.RemoveMember(list.ID, friend.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	m, _ := ls.GetMember(list.ID, friend.ID)
	if m != nil {
		t.Error("member still present after removal")
	}
}

func TestListDeleteCascadesMembers(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ls := NewListStore(db)

	owner := createTestUser(t, us, "dono@example.com")
	list, _ := ls.Create("Temporária", owner.ID, owner.Email)

	if err := ls.Delete(list.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := ls.GetByID(list.ID)
	if got != nil {
		t.Error("list still present after delete")
	}
	members, _ := ls.ListMembers(list.ID)
	if len(members) != 0 {
		t.Error("members not cascaded")
	}
}
