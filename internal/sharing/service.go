// Package sharing implements shared lists: creation, membership, and
// email-addressed invitations with a 30-day lifetime.
package sharing

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmelo/feirinha/internal/kv"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/store"
	"github.com/golang-jwt/jwt/v5"
)

const inviteTTL = 30 * 24 * time.Hour

var (
	ErrListNotFound     = errors.New("list not found")
	ErrNotOwner         = errors.New("only the list owner may do this")
	ErrNotMember        = errors.New("not a member of this list")
	ErrOwnerCannotLeave = errors.New("the owner cannot leave their own list")
	ErrSelfInvite       = errors.New("cannot invite yourself")
	ErrAlreadyMember    = errors.New("user is already a member")
	ErrDuplicateInvite  = errors.New("a pending invitation for this email already exists")
	ErrInviteNotFound   = errors.New("invitation not found")
	ErrInviteNotPending = errors.New("invitation is no longer pending")
	ErrInviteWrongEmail = errors.New("invitation is addressed to a different email")
	ErrInviteExpired    = errors.New("invitation has expired")
)

type Service struct {
	lists       *store.ListStore
	invitations *store.InvitationStore
	users       *store.UserStore
	items       *store.ItemStore
	kv          *kv.Store
	secret      []byte
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(lists *store.ListStore, invitations *store.InvitationStore, users *store.UserStore, items *store.ItemStore, kvStore *kv.Store, secret []byte, logger *slog.Logger) *Service {
	return &Service{
		lists:       lists,
		invitations: invitations,
		users:       users,
		items:       items,
		kv:          kvStore,
		secret:      secret,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateList creates a named list owned by the user. The owner becomes a
// member immediately.
func (s *Service) CreateList(ownerID int64, ownerEmail, name string) (*model.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("list name is required")
	}
	return s.lists.Create(name, ownerID, ownerEmail)
}

// ListsFor returns every list the user belongs to.
func (s *Service) ListsFor(userID int64) ([]model.ShoppingList, error) {
	return s.lists.ListForUser(userID)
}

// GetList returns a list the user is a member of.
func (s *Service) GetList(userID int64, listID string) (*model.ShoppingList, error) {
	list, err := s.lists.GetByID(listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrListNotFound
	}
	member, err := s.lists.GetMember(listID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}
	return list, nil
}

// DeleteList removes a list and everything hanging off it. Owner only. Every
// member whose active list pointed here is reset to the default local list.
func (s *Service) DeleteList(userID int64, listID string) error {
	list, err := s.lists.GetByID(listID)
	if err != nil {
		return err
	}
	if list == nil {
		return ErrListNotFound
	}
	if list.OwnerID != userID {
		return ErrNotOwner
	}

	members, err := s.lists.ListMembers(listID)
	if err != nil {
		return err
	}
	for _, m := range members {
		s.clearActiveIf(m.UserID, listID)
	}
	if err := s.items.DeleteList(listID); err != nil {
		return err
	}
	return s.lists.Delete(listID)
}

// Leave removes the user's own membership. The owner cannot leave; they must
// delete the list instead.
func (s *Service) Leave(userID int64, listID string) error {
	list, err := s.lists.GetByID(listID)
	if err != nil {
		return err
	}
	if list == nil {
		return ErrListNotFound
	}
	if list.OwnerID == userID {
		return ErrOwnerCannotLeave
	}
	member, err := s.lists.GetMember(listID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotMember
	}
	s.clearActiveIf(userID, listID)
	return s.lists.RemoveMember(listID, userID)
}

// RemoveMember evicts another member from a list. Owner only; the owner
// cannot remove themselves.
func (s *Service) RemoveMember(ownerID int64, listID string, memberUserID int64) error {
	list, err := s.lists.GetByID(listID)
	if err != nil {
		return err
	}
	if list == nil {
		return ErrListNotFound
	}
	if list.OwnerID != ownerID {
		return ErrNotOwner
	}
	if memberUserID == ownerID {
		return ErrOwnerCannotLeave
	}
	member, err := s.lists.GetMember(listID, memberUserID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotMember
	}
	s.clearActiveIf(memberUserID, listID)
	return s.lists.RemoveMember(listID, memberUserID)
}

// Members returns a list's membership, visible to members only.
func (s *Service) Members(userID int64, listID string) ([]model.ListMember, error) {
	if _, err := s.GetList(userID, listID); err != nil {
		return nil, err
	}
	return s.lists.ListMembers(listID)
}

// Invite creates a pending invitation addressed to an email, valid for 30
// days. Owner only. The invited address must not already be a member and must
// not have another pending invitation for the same list.
func (s *Service) Invite(ownerID int64, listID, email string) (*model.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("invited email is required")
	}

	list, err := s.lists.GetByID(listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrListNotFound
	}
	if list.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	if strings.EqualFold(email, list.OwnerEmail) {
		return nil, ErrSelfInvite
	}

	if invited, err := s.users.GetByEmail(email); err != nil {
		return nil, err
	} else if invited != nil {
		member, err := s.lists.GetMember(listID, invited.ID)
		if err != nil {
			return nil, err
		}
		if member != nil {
			return nil, ErrAlreadyMember
		}
	}

	pending, err := s.invitations.ListPendingForEmail(email, s.now())
	if err != nil {
		return nil, err
	}
	for _, p := range pending {
		if p.ListID == listID {
			return nil, ErrDuplicateInvite
		}
	}

	now := s.now().UTC()
	inv := model.Invitation{
		ListID:       listID,
		ListName:     list.Name,
		OwnerID:      list.OwnerID,
		OwnerEmail:   list.OwnerEmail,
		InvitedEmail: email,
		CreatedAt:    now,
		ExpiresAt:    now.Add(inviteTTL),
	}
	token, err := s.signToken(&inv)
	if err != nil {
		return nil, fmt.Errorf("sign invitation token: %w", err)
	}
	inv.Token = token

	created, err := s.invitations.Create(inv)
	if err != nil {
		return nil, err
	}
	s.logger.Info("invitation created", "list_id", listID, "invited_email", email, "expires_at", created.ExpiresAt)
	return created, nil
}

// PendingFor returns the open invitations addressed to an email.
func (s *Service) PendingFor(email string) ([]model.Invitation, error) {
	return s.invitations.ListPendingForEmail(strings.ToLower(strings.TrimSpace(email)), s.now())
}

// Accept turns a pending invitation into a membership. The accepting user's
// email must match the invited address and the invitation must still be open.
func (s *Service) Accept(userID int64, email, invitationID string) (*model.ShoppingList, error) {
	inv, err := s.openInvitation(email, invitationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.lists.AddMember(inv.ListID, userID, model.RoleMember); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	if err := s.invitations.SetStatus(inv.ID, model.InviteStatusAccepted, &userID); err != nil {
		return nil, err
	}
	s.logger.Info("invitation accepted", "invitation_id", inv.ID, "list_id", inv.ListID, "user_id", userID)
	return s.lists.GetByID(inv.ListID)
}

// Reject marks a pending invitation as rejected. Terminal.
func (s *Service) Reject(userID int64, email, invitationID string) error {
	inv, err := s.openInvitation(email, invitationID)
	if err != nil {
		return err
	}
	if err := s.invitations.SetStatus(inv.ID, model.InviteStatusRejected, &userID); err != nil {
		return err
	}
	s.logger.Info("invitation rejected", "invitation_id", inv.ID, "user_id", userID)
	return nil
}

// openInvitation loads an invitation and checks it is pending, unexpired and
// addressed to the given email.
func (s *Service) openInvitation(email, invitationID string) (*model.Invitation, error) {
	inv, err := s.invitations.GetByID(invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInviteNotFound
	}
	if inv.Status != model.InviteStatusPending {
		return nil, ErrInviteNotPending
	}
	if !strings.EqualFold(inv.InvitedEmail, strings.TrimSpace(email)) {
		return nil, ErrInviteWrongEmail
	}
	if inv.Expired(s.now()) {
		return nil, ErrInviteExpired
	}
	return inv, nil
}

// PruneExpired deletes pending invitations past their expiry.
func (s *Service) PruneExpired() (int64, error) {
	return s.invitations.DeleteExpired(s.now())
}

// SetActive records the user's active list. Membership is required; an empty
// list ID selects the default local list.
func (s *Service) SetActive(userID int64, listID string) error {
	if listID == "" {
		return s.kv.Delete(activeKey(userID))
	}
	if _, err := s.GetList(userID, listID); err != nil {
		return err
	}
	return s.kv.Set(activeKey(userID), listID)
}

// Active returns the user's active list ID, "" for the default local list.
func (s *Service) Active(userID int64) (string, error) {
	return s.kv.Get(activeKey(userID))
}

func (s *Service) clearActiveIf(userID int64, listID string) {
	current, err := s.kv.Get(activeKey(userID))
	if err != nil || current != listID {
		return
	}
	if err := s.kv.Delete(activeKey(userID)); err != nil {
		s.logger.Warn("clear active list", "user_id", userID, "error", err)
	}
}

func activeKey(userID int64) string {
	return fmt.Sprintf("active_list:%d", userID)
}

type inviteClaims struct {
	ListID string `json:"list_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Service) signToken(inv *model.Invitation) (string, error) {
	claims := inviteClaims{
		ListID: inv.ListID,
		Email:  inv.InvitedEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(inv.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(inv.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken validates an invitation token's signature and expiry and
// returns the list ID and invited email it was issued for.
func (s *Service) VerifyToken(token string) (listID, email string, err error) {
	var claims inviteClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrInviteExpired
		}
		return "", "", fmt.Errorf("parse invitation token: %w", err)
	}
	if !parsed.Valid {
		return "", "", ErrInviteNotFound
	}
	return claims.ListID, claims.Email, nil
}
