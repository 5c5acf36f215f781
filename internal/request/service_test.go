package request

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- モック ---

type mockRequestRepo struct {
	createFn              func(ctx context.Context, r *model.Request) error
	findByIDFn            func(ctx context.Context, id string) (*model.Request, error)
	findPendingByTripleFn func(ctx context.Context, senderID, receiverID, postID string) (*model.Request, error)
	listIncomingFn        func(ctx context.Context, receiverID string) ([]*model.Request, error)
	deleteFn              func(ctx context.Context, id string) error
}

func (m *mockRequestRepo) Create(ctx context.Context, r *model.Request) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	return nil
}
func (m *mockRequestRepo) FindByID(ctx context.Context, id string) (*model.Request, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockRequestRepo) FindPendingByTriple(ctx context.Context, senderID, receiverID, postID string) (*model.Request, error) {
	if m.findPendingByTripleFn != nil {
		return m.findPendingByTripleFn(ctx, senderID, receiverID, postID)
	}
	return nil, nil
}
func (m *mockRequestRepo) ListIncoming(ctx context.Context, receiverID string) ([]*model.Request, error) {
	if m.listIncomingFn != nil {
		return m.listIncomingFn(ctx, receiverID)
	}
	return nil, nil
}
func (m *mockRequestRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) ListByStatus(ctx context.Context, status model.UserStatus) ([]*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	return nil
}
func (m *mockUserRepo) UpdateRoleByID(ctx context.Context, id string, role model.Role) error {
	return nil
}
func (m *mockUserRepo) UpdateRoleByEmail(ctx context.Context, email string, role model.Role) error {
	return nil
}
func (m *mockUserRepo) ExtendAccess(ctx context.Context, id string, until time.Time) error {
	return nil
}
func (m *mockUserRepo) PauseExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
func (m *mockUserRepo) SearchOperatives(ctx context.Context, query string, now time.Time, limit int) ([]*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Stats(ctx context.Context, growthSince time.Time) (*repository.UserStats, error) {
	return nil, nil
}

type mockPostRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Post, error)
}

func (m *mockPostRepo) Create(ctx context.Context, p *model.Post) error { return nil }
func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockPostRepo) ListByVerified(ctx context.Context, verified bool) ([]*model.Post, error) {
	return nil, nil
}
func (m *mockPostRepo) SetVerified(ctx context.Context, id string) (bool, error) { return false, nil }
func (m *mockPostRepo) Delete(ctx context.Context, id string) (bool, error)      { return false, nil }

type mockConnectionRepo struct {
	createFn func(ctx context.Context, c *model.Connection) error
}

func (m *mockConnectionRepo) Create(ctx context.Context, c *model.Connection) error {
	return m.createFn(ctx, c)
}
func (m *mockConnectionRepo) FindByID(ctx context.Context, id string) (*model.Connection, error) {
	return nil, nil
}
func (m *mockConnectionRepo) ListByParticipant(ctx context.Context, userID string) ([]*model.Connection, error) {
	return nil, nil
}
func (m *mockConnectionRepo) ListIdleBefore(ctx context.Context, threshold time.Time) ([]*model.Connection, error) {
	return nil, nil
}
func (m *mockConnectionRepo) Touch(ctx context.Context, id, lastMessageID string, at time.Time) error {
	return nil
}
func (m *mockConnectionRepo) UpdateEliteState(ctx context.Context, id string, eliteReady []string, isElite bool, status model.ConnectionStatus) error {
	return nil
}
func (m *mockConnectionRepo) Delete(ctx context.Context, id string) error { return nil }

type mockNotificationRepo struct {
	createFn            func(ctx context.Context, n *model.Notification) error
	deleteByRequestIDFn func(ctx context.Context, requestID string) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if m.createFn != nil {
		return m.createFn(ctx, n)
	}
	return nil
}
func (m *mockNotificationRepo) CreateBatch(ctx context.Context, ns []*model.Notification) error {
	return nil
}
func (m *mockNotificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]*model.Notification, error) {
	return nil, nil
}
func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	return nil
}
func (m *mockNotificationRepo) UpdateCTAByCollective(ctx context.Context, collectiveID, recipientID string, status model.CTAStatus) error {
	return nil
}
func (m *mockNotificationRepo) DeleteByRequestID(ctx context.Context, requestID string) error {
	if m.deleteByRequestIDFn != nil {
		return m.deleteByRequestIDFn(ctx, requestID)
	}
	return nil
}
func (m *mockNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// --- テスト ---

func brandActor(id string) *model.Actor {
	return &model.Actor{ID: id, Email: id + "@example.com", Role: model.RoleBrand}
}

func validInput() InitiateInput {
	return InitiateInput{
		ReceiverID:    "freelancer-1",
		RelatedPostID: "post-1",
		MissionGoal:   "新ブランドのローンチ支援",
	}
}

func newTestService(
	requestRepo *mockRequestRepo,
	userRepo *mockUserRepo,
	postRepo *mockPostRepo,
	connectionRepo *mockConnectionRepo,
	notifRepo *mockNotificationRepo,
) *Service {
	svc := NewService(requestRepo, userRepo, postRepo, connectionRepo, notifRepo, testLogger())
	svc.randomSuffix = func() string { return "abc123def456" }
	return svc
}

// TestService_Initiate はミッション依頼送信の正常系を検証する。
// 送信者側の承諾フラグが作成時点でtrueになることも確認する。
func TestService_Initiate(t *testing.T) {
	var created *model.Request
	var notif *model.Notification

	requestRepo := &mockRequestRepo{
		createFn: func(ctx context.Context, r *model.Request) error {
			created = r
			return nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleFreelancer}, nil
		},
	}
	postRepo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return &model.Post{ID: id}, nil
		},
	}
	notifRepo := &mockNotificationRepo{
		createFn: func(ctx context.Context, n *model.Notification) error {
			notif = n
			return nil
		},
	}

	svc := newTestService(requestRepo, userRepo, postRepo, &mockConnectionRepo{}, notifRepo)

	req, err := svc.Initiate(context.Background(), brandActor("brand-1"), validInput())
	if err != nil {
		t.Fatalf("Initiate returned error: %v", err)
	}
	if !req.SenderAccept {
		t.Error("expected SenderAccept to be true at creation")
	}
	if req.Status != model.RequestPending {
		t.Errorf("Status = %q, want %q", req.Status, model.RequestPending)
	}
	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if notif == nil || notif.Type != model.NotifMissionRequest || notif.RecipientID != "freelancer-1" {
		t.Errorf("notification = %+v, want MISSION_REQUEST to freelancer-1", notif)
	}
	if notif.RequestID != req.ID {
		t.Errorf("notification RequestID = %q, want %q", notif.RequestID, req.ID)
	}
}

// TestService_Initiate_NonBrand_ReturnsError はブランド以外の依頼送信が拒否されることを検証する。
func TestService_Initiate_NonBrand_ReturnsError(t *testing.T) {
	svc := newTestService(&mockRequestRepo{}, &mockUserRepo{}, &mockPostRepo{}, &mockConnectionRepo{}, &mockNotificationRepo{})

	actor := &model.Actor{ID: "user-1", Role: model.RoleFreelancer}
	_, err := svc.Initiate(context.Background(), actor, validInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRoleForbidden {
		t.Fatalf("expected ROLE_FORBIDDEN, got %v", err)
	}
}

// TestService_Initiate_SelfRequest_ReturnsError は自分自身への依頼が拒否されることを検証する。
func TestService_Initiate_SelfRequest_ReturnsError(t *testing.T) {
	svc := newTestService(&mockRequestRepo{}, &mockUserRepo{}, &mockPostRepo{}, &mockConnectionRepo{}, &mockNotificationRepo{})

	input := validInput()
	input.ReceiverID = "brand-1"
	_, err := svc.Initiate(context.Background(), brandActor("brand-1"), input)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSelfRequest {
		t.Fatalf("expected SELF_REQUEST, got %v", err)
	}
}

// TestService_Initiate_Duplicate_ReturnsError は同一トリプルの未応答依頼がある場合の拒否を検証する。
func TestService_Initiate_Duplicate_ReturnsError(t *testing.T) {
	requestRepo := &mockRequestRepo{
		findPendingByTripleFn: func(ctx context.Context, senderID, receiverID, postID string) (*model.Request, error) {
			return &model.Request{ID: "req-1", Status: model.RequestPending}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleFreelancer}, nil
		},
	}
	postRepo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return &model.Post{ID: id}, nil
		},
	}

	svc := newTestService(requestRepo, userRepo, postRepo, &mockConnectionRepo{}, &mockNotificationRepo{})

	_, err := svc.Initiate(context.Background(), brandActor("brand-1"), validInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateRequest {
		t.Fatalf("expected DUPLICATE_REQUEST, got %v", err)
	}
}

// TestService_Respond_Accept は承諾によりコネクションが生成され、
// 依頼レコードと関連通知が破棄されることを検証する。
func TestService_Respond_Accept(t *testing.T) {
	requestDeleted := false
	notifDeleted := false
	var conn *model.Connection

	requestRepo := &mockRequestRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Request, error) {
			return &model.Request{
				ID:         "req-1",
				SenderID:   "brand-1",
				ReceiverID: "freelancer-1",
				Status:     model.RequestPending,
			}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			requestDeleted = true
			return nil
		},
	}
	connectionRepo := &mockConnectionRepo{
		createFn: func(ctx context.Context, c *model.Connection) error {
			conn = c
			return nil
		},
	}
	notifRepo := &mockNotificationRepo{
		deleteByRequestIDFn: func(ctx context.Context, requestID string) error {
			notifDeleted = true
			return nil
		},
	}

	svc := newTestService(requestRepo, &mockUserRepo{}, &mockPostRepo{}, connectionRepo, notifRepo)

	actor := &model.Actor{ID: "freelancer-1", Role: model.RoleFreelancer}
	result, err := svc.Respond(context.Background(), actor, "req-1", true)
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a connection, got nil")
	}
	if conn.Status != model.ConnectionNegotiating {
		t.Errorf("connection status = %q, want %q", conn.Status, model.ConnectionNegotiating)
	}
	if len(conn.Participants) != 2 || conn.Participants[0] != "brand-1" || conn.Participants[1] != "freelancer-1" {
		t.Errorf("participants = %v, want [brand-1 freelancer-1]", conn.Participants)
	}
	if !strings.HasPrefix(conn.ChatRoomID, "room_req-1_") {
		t.Errorf("ChatRoomID = %q, want prefix room_req-1_", conn.ChatRoomID)
	}
	if !requestDeleted {
		t.Error("expected request record to be deleted")
	}
	if !notifDeleted {
		t.Error("expected request notifications to be deleted")
	}
}

// TestService_Respond_Reject は拒否により依頼のみ破棄され、
// コネクションが生成されないことを検証する。
func TestService_Respond_Reject(t *testing.T) {
	requestDeleted := false
	requestRepo := &mockRequestRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Request, error) {
			return &model.Request{
				ID:         "req-1",
				SenderID:   "brand-1",
				ReceiverID: "freelancer-1",
				Status:     model.RequestPending,
			}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			requestDeleted = true
			return nil
		},
	}
	connectionRepo := &mockConnectionRepo{
		createFn: func(ctx context.Context, c *model.Connection) error {
			t.Error("connection should not be created on reject")
			return nil
		},
	}

	svc := newTestService(requestRepo, &mockUserRepo{}, &mockPostRepo{}, connectionRepo, &mockNotificationRepo{})

	actor := &model.Actor{ID: "freelancer-1", Role: model.RoleFreelancer}
	result, err := svc.Respond(context.Background(), actor, "req-1", false)
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil connection on reject, got %+v", result)
	}
	if !requestDeleted {
		t.Error("expected request record to be deleted")
	}
}

// TestService_Respond_NotifCleanupFailure_StillDeletesRequest は関連通知の
// 削除失敗が依頼本体の破棄を妨げないことを検証する。
// 通知削除後にエラーで中断すると依頼がPendingのまま残り、再応答で二重の
// コネクションが生成されてしまう。
func TestService_Respond_NotifCleanupFailure_StillDeletesRequest(t *testing.T) {
	requestDeleted := false
	requestRepo := &mockRequestRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Request, error) {
			return &model.Request{
				ID:         "req-1",
				SenderID:   "brand-1",
				ReceiverID: "freelancer-1",
				Status:     model.RequestPending,
			}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			requestDeleted = true
			return nil
		},
	}
	connectionRepo := &mockConnectionRepo{
		createFn: func(ctx context.Context, c *model.Connection) error { return nil },
	}
	notifRepo := &mockNotificationRepo{
		deleteByRequestIDFn: func(ctx context.Context, requestID string) error {
			return errors.New("notification store down")
		},
	}

	svc := newTestService(requestRepo, &mockUserRepo{}, &mockPostRepo{}, connectionRepo, notifRepo)

	actor := &model.Actor{ID: "freelancer-1", Role: model.RoleFreelancer}
	result, err := svc.Respond(context.Background(), actor, "req-1", true)
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a connection, got nil")
	}
	if !requestDeleted {
		t.Error("expected request record to be deleted despite notification failure")
	}
}

// TestService_Respond_AcceptNotifFailure_Succeeds は承諾通知の作成失敗が
// 応答処理を失敗させないことを検証する。
func TestService_Respond_AcceptNotifFailure_Succeeds(t *testing.T) {
	requestRepo := &mockRequestRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Request, error) {
			return &model.Request{
				ID:         "req-1",
				SenderID:   "brand-1",
				ReceiverID: "freelancer-1",
				Status:     model.RequestPending,
			}, nil
		},
	}
	connectionRepo := &mockConnectionRepo{
		createFn: func(ctx context.Context, c *model.Connection) error { return nil },
	}
	notifRepo := &mockNotificationRepo{
		createFn: func(ctx context.Context, n *model.Notification) error {
			return errors.New("notification store down")
		},
	}

	svc := newTestService(requestRepo, &mockUserRepo{}, &mockPostRepo{}, connectionRepo, notifRepo)

	actor := &model.Actor{ID: "freelancer-1", Role: model.RoleFreelancer}
	if _, err := svc.Respond(context.Background(), actor, "req-1", true); err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
}

// TestService_Respond_NotReceiver_ReturnsError は受信者以外の応答が拒否されることを検証する。
func TestService_Respond_NotReceiver_ReturnsError(t *testing.T) {
	requestRepo := &mockRequestRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Request, error) {
			return &model.Request{
				ID:         "req-1",
				SenderID:   "brand-1",
				ReceiverID: "freelancer-1",
				Status:     model.RequestPending,
			}, nil
		},
	}

	svc := newTestService(requestRepo, &mockUserRepo{}, &mockPostRepo{}, &mockConnectionRepo{}, &mockNotificationRepo{})

	actor := &model.Actor{ID: "freelancer-9", Role: model.RoleFreelancer}
	_, err := svc.Respond(context.Background(), actor, "req-1", true)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotParticipant {
		t.Fatalf("expected NOT_PARTICIPANT, got %v", err)
	}
}

// TestService_Respond_NotFound_ReturnsError は存在しない依頼への応答を検証する。
func TestService_Respond_NotFound_ReturnsError(t *testing.T) {
	requestRepo := &mockRequestRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Request, error) {
			return nil, nil
		},
	}

	svc := newTestService(requestRepo, &mockUserRepo{}, &mockPostRepo{}, &mockConnectionRepo{}, &mockNotificationRepo{})

	actor := &model.Actor{ID: "freelancer-1", Role: model.RoleFreelancer}
	_, err := svc.Respond(context.Background(), actor, "req-missing", true)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRequestNotFound {
		t.Fatalf("expected REQUEST_NOT_FOUND, got %v", err)
	}
}
