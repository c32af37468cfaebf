package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"table_order_backend/internal/models"
	"table_order_backend/internal/repositories"
	"table_order_backend/pkg/utils"
)

const (
	maxChatMessageLength = 500
	maxNicknameLength    = 30
	defaultChatHistory   = 50
	maxChatHistory       = 200
)

// SendChatRequest is a chat message from one table. A nil TargetTableID
// broadcasts to every table.
type SendChatRequest struct {
	TableID       int64  `json:"table_id" binding:"required"`
	Message       string `json:"message" binding:"required"`
	Nickname      string `json:"nickname"`
	TargetTableID *int64 `json:"target_table_id"`
}

type SetNicknameRequest struct {
	Nickname string `json:"nickname"`
}

// ChatService handles table-to-table messaging and nicknames.
type ChatService interface {
	SendMessage(ctx context.Context, req SendChatRequest) (*models.ChatMessage, error)
	RecentMessages(ctx context.Context, tableID, afterID int64, limit int) ([]models.ChatMessage, error)
	OnlineTables() []models.OnlineTable
	SetNickname(tableID int64, nickname string) (string, error)
}

type chatService struct {
	chatRepo  repositories.ChatRepository
	tx        repositories.Transactor
	notifier  EventNotifier
	presence  TablePresence
	maxTables int
	now       func() time.Time
}

// NewChatService creates a new instance of ChatService.
func NewChatService(repo repositories.ChatRepository, tx repositories.Transactor, notifier EventNotifier, presence TablePresence, maxTables int) ChatService {
	return &chatService{chatRepo: repo, tx: tx, notifier: notifier, presence: presence, maxTables: maxTables, now: time.Now}
}

func (s *chatService) SendMessage(ctx context.Context, req SendChatRequest) (*models.ChatMessage, error) {
	if err := validateTableID(req.TableID, s.maxTables); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", models.ErrValidation)
	}
	if utf8.RuneCountInString(text) > maxChatMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", models.ErrValidation, maxChatMessageLength)
	}
	if req.TargetTableID != nil {
		if err := validateTableID(*req.TargetTableID, s.maxTables); err != nil {
			return nil, err
		}
		if *req.TargetTableID == req.TableID {
			return nil, fmt.Errorf("%w: cannot send a private message to your own table", models.ErrValidation)
		}
	}
	if strings.TrimSpace(req.Nickname) != "" {
		if _, err := s.SetNickname(req.TableID, req.Nickname); err != nil {
			return nil, err
		}
	}

	msg := &models.ChatMessage{
		SenderTableID: req.TableID,
		Message:       text,
		Nickname:      s.presence.Nickname(req.TableID),
		TargetTableID: req.TargetTableID,
		CreatedAt:     s.now(),
	}
	if _, err := s.chatRepo.CreateMessage(ctx, s.tx.Executor(), msg); err != nil {
		return nil, err
	}

	event := models.ChatMessageEvent{
		ID:            msg.ID,
		TableID:       msg.SenderTableID,
		Nickname:      msg.Nickname,
		Message:       msg.Message,
		TargetTableID: msg.TargetTableID,
		CreatedAt:     msg.CreatedAt,
	}
	if msg.IsPrivate() {
		s.notifier.Notify(ctx, event, models.ToTable(*msg.TargetTableID), models.ToTable(msg.SenderTableID))
	} else {
		s.notifier.Notify(ctx, event, models.AllTables())
	}
	utils.LogDebug("Chat message sent", map[string]interface{}{"message_id": msg.ID, "table_id": msg.SenderTableID, "private": msg.IsPrivate()})
	return msg, nil
}

// RecentMessages returns messages visible to tableID, oldest first. A positive
// afterID turns it into a cursor for polling clients: only newer messages are
// returned.
func (s *chatService) RecentMessages(ctx context.Context, tableID, afterID int64, limit int) ([]models.ChatMessage, error) {
	if err := validateTableID(tableID, s.maxTables); err != nil {
		return nil, err
	}
	if afterID < 0 {
		return nil, fmt.Errorf("%w: after_id cannot be negative", models.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultChatHistory
	}
	if limit > maxChatHistory {
		limit = maxChatHistory
	}
	return s.chatRepo.GetVisibleMessages(ctx, tableID, afterID, limit)
}

func (s *chatService) OnlineTables() []models.OnlineTable {
	return s.presence.OnlineTables()
}

// SetNickname stores the display name of a table. A blank name restores the
// default and the effective nickname is returned.
func (s *chatService) SetNickname(tableID int64, nickname string) (string, error) {
	if err := validateTableID(tableID, s.maxTables); err != nil {
		return "", err
	}
	nickname = strings.TrimSpace(nickname)
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return "", fmt.Errorf("%w: nickname exceeds %d characters", models.ErrValidation, maxNicknameLength)
	}
	s.presence.SetNickname(tableID, nickname)
	return s.presence.Nickname(tableID), nil
}
