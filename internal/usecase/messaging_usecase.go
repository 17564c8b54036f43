package usecase

import (
	"context"
	"time"
	"unicode/utf8"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/internal/infrastructure/metrics"
	"lapakchat/internal/infrastructure/ratelimit"
	"lapakchat/pkg/errors"
	"lapakchat/pkg/logger"
)

const attachmentPreview = "[attachment]"

type MessagingUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	resolver         repository.ParticipantResolver
	rateLimiter      *ratelimit.RateLimiter
	metrics          *metrics.Collector
	previewMaxLen    int
}

func NewMessagingUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	resolver repository.ParticipantResolver,
	collector *metrics.Collector,
	previewMaxLen int,
) *MessagingUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	if previewMaxLen <= 0 {
		previewMaxLen = 120
	}

	return &MessagingUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		resolver:         resolver,
		rateLimiter:      rateLimiter,
		metrics:          collector,
		previewMaxLen:    previewMaxLen,
	}
}

// ConversationResult distinguishes "started new thread" from "opened
// existing thread" for user-facing messaging.
type ConversationResult struct {
	Conversation *entity.Conversation `json:"conversation"`
	Created      bool                 `json:"created"`
}

type SendMessageInput struct {
	ConversationID string
	Text           string
	Attachments    []string
}

// LookupOrCreateConversation returns the one conversation for the given
// member set and optional context key, creating it exactly once under
// concurrent callers. members[0] is the initiator by convention and carries
// the rate limit.
func (uc *MessagingUseCase) LookupOrCreateConversation(ctx context.Context, members []entity.ParticipantRef, contextKey, title string) (*ConversationResult, error) {
	if err := validateMembers(members); err != nil {
		return nil, err
	}

	initiator := members[0]
	allowed, waitTime := uc.rateLimiter.Allow(initiator.Key(), ratelimit.ActionCreateConversation)
	if !allowed {
		logger.Warn("LookupOrCreateConversation rate limited: %s must wait %v", initiator.Key(), waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation", waitTime)
	}

	conv := &entity.Conversation{
		Members:    members,
		MemberKeys: entity.MemberKeysOf(members),
		Title:      title,
		ContextKey: contextKey,
		DedupKey:   entity.DedupKeyFor(members, contextKey),
		IsActive:   true,
	}
	if conv.Title == "" {
		conv.Title = conv.DefaultTitle()
	}

	// Fast path: most lookups hit a thread that already exists.
	existing, err := uc.conversationRepo.GetByDedupKey(ctx, conv.DedupKey)
	if err == nil {
		return uc.existingThread(ctx, existing)
	}
	if !errors.Is(err, "NOT_FOUND") {
		logger.Error("LookupOrCreateConversation: dedup lookup failed for key %q: %v", conv.DedupKey, err)
		return nil, err
	}

	existingID, err := uc.conversationRepo.CreateWithDedupKey(ctx, conv)
	if err != nil {
		logger.Error("LookupOrCreateConversation: constrained insert failed for key %q: %v", conv.DedupKey, err)
		return nil, err
	}

	if existingID == "" {
		uc.metrics.ConversationsCreated.Inc()
		return &ConversationResult{Conversation: conv, Created: true}, nil
	}

	// Lost the race; the caller gets the winner, never an error.
	existing, err = uc.conversationRepo.GetByID(ctx, existingID)
	if err != nil {
		logger.Error("LookupOrCreateConversation: existing conversation %s unreadable: %v", existingID, err)
		return nil, err
	}

	uc.metrics.DedupConflicts.Inc()
	return uc.existingThread(ctx, existing)
}

// existingThread wraps a found conversation, reopening it first if it had
// been deactivated. Re-contact preserves history.
func (uc *MessagingUseCase) existingThread(ctx context.Context, existing *entity.Conversation) (*ConversationResult, error) {
	if !existing.IsActive {
		if err := uc.conversationRepo.SetActive(ctx, existing.ID, true); err != nil {
			return nil, err
		}
		existing.IsActive = true
	}
	return &ConversationResult{Conversation: existing, Created: false}, nil
}

// SendMessage appends a message to a conversation the sender belongs to and
// refreshes the conversation's denormalized preview. All validation happens
// before any write.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, sender entity.ParticipantRef, input SendMessageInput) (*entity.Message, error) {
	if err := sender.Validate(); err != nil {
		return nil, errors.BadRequest("Invalid sender reference", err)
	}

	allowed, waitTime := uc.rateLimiter.Allow(sender.Key(), ratelimit.ActionSendMessage)
	if !allowed {
		logger.Warn("SendMessage rate limited: %s must wait %v", sender.Key(), waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	conv, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	if !conv.HasMember(sender) {
		logger.Warn("SendMessage: %s is not a member of conversation %s", sender.Key(), input.ConversationID)
		return nil, errors.NotMember("Sender is not a member of this conversation")
	}

	message := &entity.Message{
		ConversationID: input.ConversationID,
		Sender:         sender,
		Text:           input.Text,
		Attachments:    input.Attachments,
		MemberKeys:     conv.MemberKeys,
		IsRead:         false,
	}
	if !message.HasContent() {
		return nil, errors.EmptyContent("Message needs text or at least one attachment")
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("SendMessage: failed to store message in conversation %s: %v", input.ConversationID, err)
		return nil, err
	}

	preview := uc.previewOf(message)
	if err := uc.conversationRepo.TouchOnNewMessage(ctx, conv.ID, preview, message.ID, message.CreatedAt); err != nil {
		logger.Error("SendMessage: failed to refresh preview for conversation %s: %v", conv.ID, err)
		return nil, err
	}

	uc.metrics.MessagesSent.Inc()
	return message, nil
}

// ListMessages returns a page of the conversation's messages, oldest first.
func (uc *MessagingUseCase) ListMessages(ctx context.Context, requester entity.ParticipantRef, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	conv, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}

	if !conv.HasMember(requester) {
		return nil, 0, errors.NotMember("Requester is not a member of this conversation")
	}

	return uc.messageRepo.ListByConversation(ctx, conversationID, limit, offset)
}

// ListConversations returns the participant's conversations, most recent
// activity first.
func (uc *MessagingUseCase) ListConversations(ctx context.Context, participant entity.ParticipantRef, activeOnly bool, limit, offset int) ([]*entity.Conversation, int64, error) {
	if err := participant.Validate(); err != nil {
		return nil, 0, errors.BadRequest("Invalid participant reference", err)
	}

	return uc.conversationRepo.ListByMember(ctx, participant.Key(), activeOnly, limit, offset)
}

func (uc *MessagingUseCase) GetConversation(ctx context.Context, requester entity.ParticipantRef, id string) (*entity.Conversation, error) {
	conv, err := uc.conversationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !conv.HasMember(requester) {
		return nil, errors.NotMember("Requester is not a member of this conversation")
	}

	return conv, nil
}

// MarkRead flips every message addressed to the reader with createdAt <= upTo
// from unread to read. A zero upTo means now. Returns the number of messages
// mutated; re-invoking with the same or an earlier bound mutates nothing.
func (uc *MessagingUseCase) MarkRead(ctx context.Context, reader entity.ParticipantRef, conversationID string, upTo time.Time) (int, error) {
	conv, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	if !conv.HasMember(reader) {
		return 0, errors.NotMember("Reader is not a member of this conversation")
	}

	if upTo.IsZero() {
		upTo = time.Now()
	}

	count, err := uc.messageRepo.MarkReadUpTo(ctx, conversationID, reader.Key(), upTo)
	if err != nil {
		logger.Error("MarkRead: failed for conversation %s reader %s: %v", conversationID, reader.Key(), err)
		return 0, err
	}

	uc.metrics.MessagesMarkedRead.Add(float64(count))
	return count, nil
}

func (uc *MessagingUseCase) UnreadCount(ctx context.Context, reader entity.ParticipantRef, conversationID string) (int, error) {
	conv, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	if !conv.HasMember(reader) {
		return 0, errors.NotMember("Reader is not a member of this conversation")
	}

	return uc.messageRepo.CountUnread(ctx, conversationID, reader.Key())
}

// UnreadCounts returns unread totals for every conversation the participant
// is in, for listing views; one aggregate scan, not one query per thread.
func (uc *MessagingUseCase) UnreadCounts(ctx context.Context, participant entity.ParticipantRef) (map[string]int, error) {
	if err := participant.Validate(); err != nil {
		return nil, errors.BadRequest("Invalid participant reference", err)
	}

	return uc.messageRepo.CountUnreadByMember(ctx, participant.Key())
}

// DeactivateConversation closes a thread without destroying its history.
// Deactivating twice is a no-op success.
func (uc *MessagingUseCase) DeactivateConversation(ctx context.Context, requester entity.ParticipantRef, id string) error {
	conv, err := uc.conversationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !conv.HasMember(requester) {
		return errors.NotMember("Requester is not a member of this conversation")
	}

	return uc.conversationRepo.SetActive(ctx, id, false)
}

// ResolveParticipant maps a bare id to a typed reference via the external
// principal records.
func (uc *MessagingUseCase) ResolveParticipant(ctx context.Context, id string) (entity.ParticipantRef, error) {
	return uc.resolver.Resolve(ctx, id)
}

func validateMembers(members []entity.ParticipantRef) error {
	if len(members) < 2 {
		return errors.InvalidMembership("A conversation needs at least two members")
	}

	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if err := m.Validate(); err != nil {
			return errors.InvalidMembership(err.Error())
		}
		key := m.Key()
		if _, dup := seen[key]; dup {
			return errors.InvalidMembership("Duplicate member " + key)
		}
		seen[key] = struct{}{}
	}

	return nil
}

func (uc *MessagingUseCase) previewOf(message *entity.Message) string {
	text := message.Text
	if text == "" {
		return attachmentPreview
	}

	if utf8.RuneCountInString(text) <= uc.previewMaxLen {
		return text
	}

	runes := []rune(text)
	return string(runes[:uc.previewMaxLen])
}
