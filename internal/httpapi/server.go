package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
)

// Services bundles the booking components the HTTP API drives.
type Services struct {
	Store        booking.Store
	Availability *booking.AvailabilityChecker
	Allocator    *booking.Allocator
	Engine       *booking.Engine
	Loyalty      *booking.LoyaltyLedger
	Auditor      *booking.Auditor
	Locks        *booking.LockManager
}

func (services Services) validate() error {
	if services.Store == nil || services.Availability == nil || services.Allocator == nil ||
		services.Engine == nil || services.Loyalty == nil || services.Auditor == nil || services.Locks == nil {
		return fmt.Errorf("%w: http api services are incomplete", booking.ErrInvalidServiceConfig)
	}
	return nil
}

// Run serves the API until ctx ends.
func Run(ctx context.Context, cfg Config, services Services, logger *zap.Logger) error {
	router, err := NewRouter(cfg, services, logger)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hoteld listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter validates the configuration and builds the gin engine.
func NewRouter(cfg Config, services Services, logger *zap.Logger) (*gin.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := services.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validator, err := sessionvalidator.New(sessionvalidator.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
	})
	if err != nil {
		return nil, fmt.Errorf("session validator: %w", err)
	}
	handler := &httpHandler{logger: logger, services: services, cfg: cfg}
	return setupRouter(cfg, handler, validator), nil
}

func setupRouter(cfg Config, handler *httpHandler, validator *sessionvalidator.Validator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(validator.GinMiddleware(claimsContextKey))

	api.GET("/session", handler.handleSession)
	api.GET("/rooms", handler.handleRooms)
	api.GET("/rooms/:room/availability", handler.handleAvailability)

	api.POST("/reservations", handler.handleCreateReservation)
	api.GET("/reservations/:id", handler.handleDiagnose)
	api.POST("/reservations/:id/reassign", handler.handleReassign)
	api.POST("/reservations/:id/payments", handler.handlePaymentCreated)
	api.POST("/reservations/:id/check-in", handler.handleCheckIn)
	api.POST("/reservations/:id/check-out", handler.handleCheckOut)
	api.POST("/reservations/:id/cancel", handler.handleCancel)

	api.POST("/payments/:id/proofs", handler.handleProofUploaded)
	api.POST("/payments/:id/reconcile", handler.handleReconcile)
	api.POST("/proofs/:id/approve", handler.handleProofApproved)
	api.POST("/proofs/:id/reject", handler.handleProofRejected)

	api.GET("/clients/:id/loyalty", handler.handleLoyalty)
	api.POST("/clients/:id/loyalty/adjustments", handler.handleLoyaltyAdjustment)

	api.GET("/audit/overbooking", handler.handleOverbookingReport)
	api.POST("/audit/resolutions", handler.handleResolveConflict)
	api.GET("/locks", handler.handleLocks)

	return router
}

type httpHandler struct {
	logger   *zap.Logger
	services Services
	cfg      Config
}

func (handler *httpHandler) handleSession(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"user_id": claims.GetUserID(),
		"email":   claims.GetUserEmail(),
		"display": claims.GetUserDisplayName(),
		"roles":   claims.GetUserRoles(),
		"expires": claims.GetExpiresAt().Unix(),
	})
}

func (handler *httpHandler) handleRooms(ctx *gin.Context) {
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	rooms, err := handler.services.Store.ListRooms(requestCtx)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]roomPayload, 0, len(rooms))
	for _, room := range rooms {
		payloads = append(payloads, newRoomPayload(room))
	}
	ctx.JSON(http.StatusOK, gin.H{"rooms": payloads})
}

func (handler *httpHandler) handleAvailability(ctx *gin.Context) {
	room, err := booking.NewRoomNumber(ctx.Param("room"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	interval, err := parseInterval(ctx.Query("check_in"), ctx.Query("check_out"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var exclude *booking.ReservationID
	if raw := ctx.Query("exclude"); raw != "" {
		reservationID, err := booking.NewReservationID(raw)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		exclude = &reservationID
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	availability, err := handler.services.Availability.CheckAvailability(requestCtx, room, interval, exclude)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newAvailabilityPayload(availability))
}

func (handler *httpHandler) handleCreateReservation(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	var request reservationRequest
	if !bindJSON(ctx, &request) {
		return
	}
	clientID, err := booking.NewClientID(request.ClientID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	room, err := booking.NewRoomNumber(request.Room)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	interval, err := parseInterval(request.CheckIn, request.CheckOut)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	reservation, err := handler.services.Allocator.CreateReservation(requestCtx, booking.ReservationRequest{
		ClientID:         clientID,
		Room:             room,
		CheckIn:          interval.Start,
		CheckOut:         interval.End,
		NightlyRateCents: request.NightlyRateCents,
		Occupants:        request.Occupants,
		Operator:         operator,
	}, request.AllowOverbooking)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"reservation": newReservationPayload(reservation)})
}

func (handler *httpHandler) handleReassign(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	reservationID, ok := handler.reservationID(ctx)
	if !ok {
		return
	}
	var request reassignRequest
	if !bindJSON(ctx, &request) {
		return
	}
	room, err := booking.NewRoomNumber(request.Room)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	reservation, err := handler.services.Allocator.ReassignRoom(requestCtx, reservationID, room, operator)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservation": newReservationPayload(reservation)})
}

func (handler *httpHandler) handleDiagnose(ctx *gin.Context) {
	reservationID, ok := handler.reservationID(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	diagnosis, err := handler.services.Engine.Diagnose(requestCtx, reservationID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newDiagnosisPayload(diagnosis))
}

func (handler *httpHandler) handlePaymentCreated(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	reservationID, ok := handler.reservationID(ctx)
	if !ok {
		return
	}
	var request paymentRequest
	if !bindJSON(ctx, &request) {
		return
	}
	method, err := booking.ParsePaymentMethod(request.Method)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.respondTransition(ctx, func(requestCtx context.Context) (booking.TransitionResult, error) {
		return handler.services.Engine.PaymentCreated(requestCtx, booking.PaymentRequest{
			ReservationID:        reservationID,
			AmountCents:          request.AmountCents,
			Method:               method,
			GatewayTransactionID: request.GatewayTransactionID,
			Operator:             operator,
		})
	})
}

func (handler *httpHandler) handleProofUploaded(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	paymentID, err := booking.NewPaymentID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request proofRequest
	if !bindJSON(ctx, &request) {
		return
	}
	handler.respondTransition(ctx, func(requestCtx context.Context) (booking.TransitionResult, error) {
		return handler.services.Engine.ProofUploaded(requestCtx, paymentID, request.FileRef, operator)
	})
}

func (handler *httpHandler) handleReconcile(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	paymentID, err := booking.NewPaymentID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.respondTransition(ctx, func(requestCtx context.Context) (booking.TransitionResult, error) {
		return handler.services.Engine.ReconcilePayment(requestCtx, paymentID, operator)
	})
}

func (handler *httpHandler) handleProofApproved(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	proofID, err := booking.NewProofID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.respondTransition(ctx, func(requestCtx context.Context) (booking.TransitionResult, error) {
		return handler.services.Engine.ProofApproved(requestCtx, proofID, operator)
	})
}

func (handler *httpHandler) handleProofRejected(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	proofID, err := booking.NewProofID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request reviewRequest
	if !bindOptionalJSON(ctx, &request) {
		return
	}
	handler.respondTransition(ctx, func(requestCtx context.Context) (booking.TransitionResult, error) {
		return handler.services.Engine.ProofRejected(requestCtx, proofID, operator, request.Note)
	})
}

func (handler *httpHandler) handleCheckIn(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	reservationID, ok := handler.reservationID(ctx)
	if !ok {
		return
	}
	var request checkInRequest
	if !bindOptionalJSON(ctx, &request) {
		return
	}
	handler.respondTransition(ctx, func(requestCtx context.Context) (booking.TransitionResult, error) {
		return handler.services.Engine.CheckIn(requestCtx, reservationID, operator, request.Occupants)
	})
}

func (handler *httpHandler) handleCheckOut(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	reservationID, ok := handler.reservationID(ctx)
	if !ok {
		return
	}
	handler.respondTransition(ctx, func(requestCtx context.Context) (booking.TransitionResult, error) {
		return handler.services.Engine.CheckOut(requestCtx, reservationID, operator)
	})
}

func (handler *httpHandler) handleCancel(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	reservationID, ok := handler.reservationID(ctx)
	if !ok {
		return
	}
	var request cancelRequest
	if !bindOptionalJSON(ctx, &request) {
		return
	}
	handler.respondTransition(ctx, func(requestCtx context.Context) (booking.TransitionResult, error) {
		return handler.services.Engine.Cancel(requestCtx, reservationID, operator, request.Reason)
	})
}

func (handler *httpHandler) handleLoyalty(ctx *gin.Context) {
	clientID, err := booking.NewClientID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	limit, err := parseLimit(ctx.Query("limit"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	balance, err := handler.services.Loyalty.Balance(requestCtx, clientID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	entries, err := handler.services.Loyalty.Entries(requestCtx, clientID, limit)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := loyaltyPayload{ClientID: clientID.String(), Balance: balance, Entries: make([]loyaltyEntryPayload, 0, len(entries))}
	for _, entry := range entries {
		payload.Entries = append(payload.Entries, newLoyaltyEntryPayload(entry))
	}
	ctx.JSON(http.StatusOK, payload)
}

func (handler *httpHandler) handleLoyaltyAdjustment(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	clientID, err := booking.NewClientID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request adjustmentRequest
	if !bindJSON(ctx, &request) {
		return
	}
	source, err := booking.ParseLoyaltySource(request.Source)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	adjustment := booking.LoyaltyAdjustment{ClientID: clientID, Delta: request.Delta, Source: source, Operator: operator}
	if request.ReservationID != "" {
		reservationID, err := booking.NewReservationID(request.ReservationID)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		adjustment.ReservationID = &reservationID
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	entry, err := handler.services.Loyalty.Adjust(requestCtx, adjustment)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"entry": newLoyaltyEntryPayload(entry)})
}

func (handler *httpHandler) handleOverbookingReport(ctx *gin.Context) {
	interval, err := parseInterval(ctx.Query("start"), ctx.Query("end"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	report, err := handler.services.Auditor.AnalyzeRange(requestCtx, interval.Start, interval.End)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newReportPayload(report))
}

func (handler *httpHandler) handleResolveConflict(ctx *gin.Context) {
	operator, ok := handler.operator(ctx)
	if !ok {
		return
	}
	var request resolutionRequest
	if !bindJSON(ctx, &request) {
		return
	}
	domainRequest := booking.ConflictResolutionRequest{
		ConflictID: request.ConflictID,
		Action:     booking.ResolutionAction(request.Action),
		Operator:   operator,
	}
	if request.TargetReservationID != "" {
		target, err := booking.NewReservationID(request.TargetReservationID)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		domainRequest.Target = &target
	}
	if request.TargetRoom != "" {
		room, err := booking.NewRoomNumber(request.TargetRoom)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		domainRequest.TargetRoom = room
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	resolution, err := handler.services.Auditor.ResolveConflict(requestCtx, domainRequest)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"resolution": newResolutionPayload(resolution)})
}

func (handler *httpHandler) handleLocks(ctx *gin.Context) {
	held := handler.services.Locks.HeldLocks()
	payloads := make([]lockPayload, 0, len(held))
	for _, lock := range held {
		payloads = append(payloads, lockPayload{Key: lock.Key, Since: lock.Since})
	}
	ctx.JSON(http.StatusOK, gin.H{"locks": payloads})
}

func (handler *httpHandler) respondTransition(ctx *gin.Context, transition func(context.Context) (booking.TransitionResult, error)) {
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	result, err := transition(requestCtx)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"result": newTransitionPayload(result)})
}

func (handler *httpHandler) requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), handler.cfg.RequestTimeout)
}

func (handler *httpHandler) operator(ctx *gin.Context) (booking.OperatorID, bool) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return booking.OperatorID{}, false
	}
	operator, err := booking.NewOperatorID(claims.GetUserID())
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "session has no user"))
		return booking.OperatorID{}, false
	}
	return operator, true
}

func (handler *httpHandler) reservationID(ctx *gin.Context) (booking.ReservationID, bool) {
	reservationID, err := booking.NewReservationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return booking.ReservationID{}, false
	}
	return reservationID, true
}

func getClaims(ctx *gin.Context) *sessionvalidator.Claims {
	claimsValue, ok := ctx.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := claimsValue.(*sessionvalidator.Claims)
	return claims
}
