package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/database"
	"agency-backend/internal/email"
	"agency-backend/internal/models"
	"agency-backend/internal/payments"
	"agency-backend/internal/retry"
	"agency-backend/internal/storage"
)

// OrderService drives the order lifecycle: staging uploads, the deposit
// checkout, finalization into a permanent order, the remaining-payment
// checkout and the final completion.
type OrderService struct {
	orders   OrderStore
	temps    TempFileStore
	users    UserStore
	cancels  CancelStore
	storage  Storage
	payments payments.Provider
	outbox   MailOutbox
	hub      Broadcaster
	logger   *zap.Logger

	frontendURL string
	now         Clock
}

func NewOrderService(
	orders OrderStore,
	temps TempFileStore,
	users UserStore,
	cancels CancelStore,
	store Storage,
	provider payments.Provider,
	outbox MailOutbox,
	hub Broadcaster,
	logger *zap.Logger,
	frontendURL string,
) *OrderService {
	return &OrderService{
		orders:      orders,
		temps:       temps,
		users:       users,
		cancels:     cancels,
		storage:     store,
		payments:    provider,
		outbox:      outbox,
		hub:         hub,
		logger:      logger,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

// StagedUpload is a file read out of the multipart form.
type StagedUpload struct {
	Name     string
	MimeType string
	Data     []byte
}

type StageResult struct {
	TempID        string
	TempFolder    string
	Files         []models.FileMeta
	Uploaded      []string
	Failed        []string
	PaymentAmount float64
}

// StageOrder uploads the customer's files to a temp folder and records
// them in a TempFile with a 24h expiry. Files are uploaded concurrently;
// JSON payloads slipped into the file list are skipped. Partial success
// proceeds with the surviving subset, total failure aborts.
func (s *OrderService) StageOrder(ctx context.Context, user *models.User, form *models.OrderForm, uploads []StagedUpload) (*StageResult, error) {
	tempFolder := fmt.Sprintf("temp_orders/%s_%d", storage.SafeFileName(form.Name), s.now().UnixMilli())

	type uploadOutcome struct {
		idx  int
		meta *storage.UploadResult
		err  error
	}

	results := make([]uploadOutcome, 0, len(uploads))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, up := range uploads {
		if up.MimeType == "application/json" {
			continue
		}
		wg.Add(1)
		go func(idx int, up StagedUpload) {
			defer wg.Done()
			meta, err := s.storage.Upload(ctx, up.Data, tempFolder, up.Name, up.MimeType)
			mu.Lock()
			results = append(results, uploadOutcome{idx: idx, meta: meta, err: err})
			mu.Unlock()
		}(i, up)
	}
	wg.Wait()

	var files []models.FileMeta
	var uploaded, failed []string
	for _, r := range results {
		name := uploads[r.idx].Name
		if r.err != nil {
			s.logger.Error("temp upload failed",
				zap.String("file", name), zap.Error(r.err))
			failed = append(failed, name)
			continue
		}
		files = append(files, models.FileMeta{
			Name:         r.meta.Name,
			URL:          r.meta.URL,
			PublicID:     r.meta.PublicID,
			MimeType:     uploads[r.idx].MimeType,
			ResourceType: r.meta.ResourceType,
		})
		uploaded = append(uploaded, r.meta.Name)
	}

	if len(files) == 0 {
		return nil, ErrAllUploadsFailed
	}

	tf := &models.TempFile{
		UserID:     user.ID,
		TempFolder: tempFolder,
		Files:      files,
		ExpiresAt:  s.now().Add(models.TempFileTTL),
	}
	if err := s.temps.CreateTempFile(ctx, tf); err != nil {
		return nil, err
	}

	return &StageResult{
		TempID:        tf.ID.Hex(),
		TempFolder:    tempFolder,
		Files:         files,
		Uploaded:      uploaded,
		Failed:        failed,
		PaymentAmount: HalfPayment(form.ProjectBudget),
	}, nil
}

// CreateInitialCheckout validates the order data and amount, then opens
// the deposit checkout session carrying everything finalization needs.
func (s *OrderService) CreateInitialCheckout(ctx context.Context, userID primitive.ObjectID, rawOrderData, tempID string, amountCents int64) (*payments.CheckoutSession, error) {
	form, err := models.ParseOrderForm(rawOrderData)
	if err != nil {
		return nil, err
	}

	expected := int64(math.Round(HalfPayment(form.ProjectBudget) * 100))
	if expected <= 0 || amountCents != expected {
		return nil, ErrAmountMismatch
	}

	tempOID, err := primitive.ObjectIDFromHex(tempID)
	if err != nil {
		return nil, fmt.Errorf("invalid temp id: %w", err)
	}
	if _, err := s.temps.GetTempFile(ctx, tempOID); err != nil {
		return nil, s.translate(err)
	}

	sess, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutInput{
		AmountCents: expected,
		ProductName: fmt.Sprintf("%s project deposit (50%%)", form.ProjectType),
		SuccessURL:  s.frontendURL + "/order/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.frontendURL + "/order/cancelled",
		Metadata:    payments.InitialPaymentMetadata(userID.Hex(), tempID, rawOrderData).Encode(),
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

type FinalizeResult struct {
	Order            *models.Order
	Failed           []string
	AlreadyProcessed bool
}

// FinalizeOrder turns a paid deposit session into a permanent order. The
// staged files are moved (download, re-upload, destroy source) into the
// permanent folder; per-file failures are collected but not fatal. The
// stored sessionId makes the operation idempotent across webhook replays
// and the success-page poll.
func (s *OrderService) FinalizeOrder(ctx context.Context, sessionID string) (*FinalizeResult, error) {
	if existing, err := s.orders.GetOrderBySessionID(ctx, sessionID); err == nil {
		return &FinalizeResult{Order: existing, AlreadyProcessed: true}, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	sess, err := s.payments.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid {
		return nil, ErrSessionNotPaid
	}

	meta, err := payments.ParseSessionMetadata(sess.Metadata)
	if err != nil {
		return nil, err
	}
	if meta.Intent != payments.IntentInitialPayment {
		return nil, fmt.Errorf("session %s is not an initial payment", sessionID)
	}

	form, err := models.ParseOrderForm(meta.OrderData)
	if err != nil {
		return nil, err
	}

	userOID, err := primitive.ObjectIDFromHex(meta.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in session metadata: %w", err)
	}
	user, err := s.users.GetUserByID(ctx, userOID)
	if err != nil {
		return nil, s.translate(err)
	}

	tempOID, err := primitive.ObjectIDFromHex(meta.TempID)
	if err != nil {
		return nil, fmt.Errorf("invalid temp id in session metadata: %w", err)
	}
	temp, err := s.temps.GetTempFile(ctx, tempOID)
	if err != nil {
		return nil, s.translate(err)
	}

	orderID, err := s.GenerateOrderID(ctx)
	if err != nil {
		return nil, err
	}

	permanentFolder := fmt.Sprintf("orders/%s_%d", storage.SafeFileName(form.Name), s.now().UnixMilli())

	var moved []models.FileMeta
	var failed []string
	for _, f := range temp.Files {
		meta, err := s.moveFile(ctx, f, permanentFolder)
		if err != nil {
			s.logger.Error("failed to move staged file",
				zap.String("file", f.Name),
				zap.String("publicId", f.PublicID),
				zap.Error(err))
			failed = append(failed, f.Name)
			continue
		}
		moved = append(moved, *meta)
	}

	timeline, err := form.TimelineDate()
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderID:            orderID,
		Name:               form.Name,
		Email:              form.Email,
		Phone:              form.Phone,
		ProjectType:        form.ProjectType,
		ProjectBudget:      form.ProjectBudget,
		Timeline:           timeline,
		ProjectDescription: form.ProjectDescription,
		PaymentReference:   form.PaymentReference,
		PaymentMethod:      form.PaymentMethod,
		Files:              moved,
		UserID:             user.ID,
		Avatar:             user.Avatar,
		Status:             models.OrderStatusPending,
		PaymentStatus:      models.PaymentStatusHalfPaid,
		InitialPayment:     float64(sess.AmountTotal) / 100,
		SessionID:          sessionID,
		TempFolder:         temp.TempFolder,
		PermanentFolder:    permanentFolder,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	// The temp area is reclaimed only when every file made it across;
	// otherwise the record stays for a retry and the sweeper is the
	// backstop.
	if len(failed) == 0 {
		s.cleanupTempArea(ctx, temp)
	}

	confirmation := email.OrderConfirmation(user.Email, user.Name, email.OrderConfirmationData{
		OrderID:        orderID,
		ProjectType:    form.ProjectType,
		InitialPayment: order.InitialPayment,
		Files:          fileNames(moved),
		FailedFiles:    failed,
	})
	s.outbox.Enqueue("order-confirmation", confirmation)

	return &FinalizeResult{Order: order, Failed: failed}, nil
}

// moveFile is a true move: verify the source asset, download its bytes,
// upload under the new folder, then destroy the original.
func (s *OrderService) moveFile(ctx context.Context, f models.FileMeta, folder string) (*models.FileMeta, error) {
	if err := retry.Operation(func() error {
		return s.storage.AssetExists(ctx, f.PublicID, f.ResourceType)
	}); err != nil {
		return nil, err
	}

	data, err := s.storage.Download(ctx, f.PublicID, f.ResourceType)
	if err != nil {
		return nil, err
	}

	var result *storage.UploadResult
	if err := retry.Operation(func() error {
		var upErr error
		result, upErr = s.storage.Upload(ctx, data, folder, f.Name, f.MimeType)
		return upErr
	}); err != nil {
		return nil, err
	}

	if err := s.storage.Destroy(ctx, f.PublicID, f.ResourceType); err != nil {
		// The copy exists, so the move succeeded from the order's point
		// of view; the stale source is swept with the temp folder.
		s.logger.Warn("failed to destroy moved source asset",
			zap.String("publicId", f.PublicID), zap.Error(err))
	}

	return &models.FileMeta{
		Name:         result.Name,
		URL:          result.URL,
		PublicID:     result.PublicID,
		MimeType:     f.MimeType,
		ResourceType: result.ResourceType,
	}, nil
}

// cleanupTempArea best-effort deletes residual temp assets, the folder and
// the TempFile record. Failures are logged, never propagated.
func (s *OrderService) cleanupTempArea(ctx context.Context, temp *models.TempFile) {
	if err := s.storage.DeleteByPrefix(ctx, temp.TempFolder); err != nil {
		s.logger.Warn("failed to delete residual temp assets",
			zap.String("folder", temp.TempFolder), zap.Error(err))
	}
	if err := s.storage.DeleteFolder(ctx, temp.TempFolder); err != nil {
		s.logger.Warn("failed to delete temp folder",
			zap.String("folder", temp.TempFolder), zap.Error(err))
	}
	if err := s.temps.DeleteTempFile(ctx, temp.ID); err != nil {
		s.logger.Warn("failed to delete temp file record",
			zap.String("tempId", temp.ID.Hex()), zap.Error(err))
	}
}

type CompletionCheckout struct {
	SessionID string
	URL       string
	Folder    string
	Files     []models.FileMeta
}

// CreateCompletionCheckout uploads the deliverables, opens the
// remaining-payment session and emails the customer the payment link.
func (s *OrderService) CreateCompletionCheckout(ctx context.Context, orderID primitive.ObjectID, uploads []StagedUpload, message string) (*CompletionCheckout, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, s.translate(err)
	}
	if order.Status == models.OrderStatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no deliverable files provided")
	}

	folder := fmt.Sprintf("completed_orders/%s_%d", order.OrderID, s.now().UnixMilli())

	var files []models.FileMeta
	for _, up := range uploads {
		var result *storage.UploadResult
		err := retry.Operation(func() error {
			var upErr error
			result, upErr = s.storage.Upload(ctx, up.Data, folder, up.Name, up.MimeType)
			return upErr
		})
		if err != nil {
			// Deliverables are all-or-nothing: roll back what landed.
			for _, f := range files {
				if dErr := s.storage.Destroy(ctx, f.PublicID, f.ResourceType); dErr != nil {
					s.logger.Warn("failed to roll back deliverable",
						zap.String("publicId", f.PublicID), zap.Error(dErr))
				}
			}
			return nil, fmt.Errorf("failed to upload deliverable %s: %w", up.Name, err)
		}
		files = append(files, models.FileMeta{
			Name:         result.Name,
			URL:          result.URL,
			PublicID:     result.PublicID,
			MimeType:     up.MimeType,
			ResourceType: result.ResourceType,
		})
	}

	amount := HalfPayment(order.ProjectBudget)
	fileMetaJSON, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file metadata: %w", err)
	}

	sess, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutInput{
		AmountCents: int64(math.Round(amount * 100)),
		ProductName: fmt.Sprintf("Order %s remaining payment", order.OrderID),
		SuccessURL:  s.frontendURL + "/order/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.frontendURL + "/order/cancelled",
		Metadata:    payments.RemainingPaymentMetadata(order.ID.Hex(), string(fileMetaJSON), message, folder).Encode(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetRemainingPaymentSession(ctx, order.ID, sess.ID); err != nil {
		return nil, err
	}

	s.outbox.Enqueue("remaining-payment",
		email.RemainingPayment(order.Email, order.Name, order.OrderID, amount, sess.URL))

	return &CompletionCheckout{
		SessionID: sess.ID,
		URL:       sess.URL,
		Folder:    folder,
		Files:     files,
	}, nil
}

// CompleteOrder finishes a paid order: swap in the delivered files, mark
// it full_paid, email the customer, reclaim the completed folder and tell
// the admin room. The conditional update makes the webhook/poll race safe:
// the loser gets ErrAlreadyCompleted and performs no side effects.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID primitive.ObjectID, fileMetaJSON, message, folderPath string) error {
	var files []models.FileMeta
	if err := json.Unmarshal([]byte(fileMetaJSON), &files); err != nil {
		return fmt.Errorf("invalid file metadata: %w", err)
	}

	completed, err := s.orders.CompletePendingOrder(ctx, orderID, files)
	if err != nil {
		return err
	}
	if !completed {
		return ErrAlreadyCompleted
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return s.translate(err)
	}

	s.outbox.Enqueue("order-completed",
		email.OrderCompleted(order.Email, order.Name, order.OrderID, message, files))

	for _, f := range files {
		f := f
		if err := retry.Operation(func() error {
			return s.storage.Destroy(ctx, f.PublicID, f.ResourceType)
		}); err != nil {
			s.logger.Warn("failed to destroy delivered file",
				zap.String("publicId", f.PublicID), zap.Error(err))
		}
	}
	if folderPath != "" {
		if err := s.storage.DeleteFolder(ctx, folderPath); err != nil {
			s.logger.Warn("failed to delete completed folder",
				zap.String("folder", folderPath), zap.Error(err))
		}
	}

	s.hub.ToAdmin("orderCompleted", map[string]interface{}{"orderId": order.OrderID})
	return nil
}

// CleanupTempFileByID reclaims a staged upload after an expired or failed
// checkout session.
func (s *OrderService) CleanupTempFileByID(ctx context.Context, tempID string) error {
	oid, err := primitive.ObjectIDFromHex(tempID)
	if err != nil {
		return fmt.Errorf("invalid temp id: %w", err)
	}
	temp, err := s.temps.GetTempFile(ctx, oid)
	if errors.Is(err, database.ErrNotFound) {
		return nil // already reclaimed
	}
	if err != nil {
		return err
	}

	for _, f := range temp.Files {
		f := f
		if err := retry.Operation(func() error {
			return s.storage.Destroy(ctx, f.PublicID, f.ResourceType)
		}); err != nil {
			s.logger.Warn("failed to destroy staged file",
				zap.String("publicId", f.PublicID), zap.Error(err))
		}
	}
	s.cleanupTempArea(ctx, temp)
	return nil
}

func (s *OrderService) translate(err error) error {
	return translateNotFound(err)
}

func fileNames(files []models.FileMeta) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

// PartialMoveWarning renders the warning attached to responses when some
// staged files could not be moved.
func PartialMoveWarning(failed []string) string {
	if len(failed) == 0 {
		return ""
	}
	return fmt.Sprintf("some files could not be transferred: %s", strings.Join(failed, ", "))
}
