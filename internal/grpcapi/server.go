package grpcapi

import (
	"context"
	"errors"
	"strings"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC name of the lifecycle service.
	ServiceName = "hospedagem.lifecycle.v1.LifecycleService"

	MethodCheckIn  = "/" + ServiceName + "/CheckIn"
	MethodCheckOut = "/" + ServiceName + "/CheckOut"
	MethodCancel   = "/" + ServiceName + "/Cancel"
	MethodDiagnose = "/" + ServiceName + "/Diagnose"

	// OperatorMetadataKey carries the acting operator on every call.
	OperatorMetadataKey = "x-operator-id"

	fieldReservationID = "reservation_id"
	fieldOccupants     = "occupants"
	fieldReason        = "reason"

	errorGatewayUnavailable = "gateway_unavailable"
	errorRoomUnavailable    = "room_unavailable"
)

// LifecycleService is the server side of the lifecycle triggers. Requests and
// responses are protobuf well-known types so no generated stubs are needed.
type LifecycleService interface {
	CheckIn(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	CheckOut(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	Cancel(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	Diagnose(ctx context.Context, reservationID *wrapperspb.StringValue) (*structpb.Struct, error)
}

var lifecycleServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LifecycleService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckIn", Handler: unaryHandler(MethodCheckIn, newStruct, LifecycleService.CheckIn)},
		{MethodName: "CheckOut", Handler: unaryHandler(MethodCheckOut, newStruct, LifecycleService.CheckOut)},
		{MethodName: "Cancel", Handler: unaryHandler(MethodCancel, newStruct, LifecycleService.Cancel)},
		{MethodName: "Diagnose", Handler: unaryHandler(MethodDiagnose, newStringValue, LifecycleService.Diagnose)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hospedagem/lifecycle/v1/lifecycle.proto",
}

// RegisterLifecycleService attaches service to registrar.
func RegisterLifecycleService(registrar grpc.ServiceRegistrar, service LifecycleService) {
	registrar.RegisterService(&lifecycleServiceDesc, service)
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }

func newStringValue() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }

func unaryHandler[Request proto.Message](
	fullMethod string,
	newRequest func() Request,
	call func(LifecycleService, context.Context, Request) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(server any, ctx context.Context, decode func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		request := newRequest()
		if err := decode(request); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(server.(LifecycleService), ctx, request)
		}
		info := &grpc.UnaryServerInfo{Server: server, FullMethod: fullMethod}
		handler := func(ctx context.Context, decoded any) (any, error) {
			return call(server.(LifecycleService), ctx, decoded.(Request))
		}
		return interceptor(ctx, request, info, handler)
	}
}

// LifecycleServer exposes the booking engine triggers over gRPC.
type LifecycleServer struct {
	engine *booking.Engine
}

// NewLifecycleServer constructs the gRPC adapter for engine.
func NewLifecycleServer(engine *booking.Engine) (*LifecycleServer, error) {
	if engine == nil {
		return nil, errors.New("grpcapi: engine dependency is nil")
	}
	return &LifecycleServer{engine: engine}, nil
}

func (server *LifecycleServer) CheckIn(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	reservationID, operator, err := triggerSubject(ctx, request)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	occupants := int(request.GetFields()[fieldOccupants].GetNumberValue())
	result, err := server.engine.CheckIn(ctx, reservationID, operator, occupants)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	return transitionStruct(result)
}

func (server *LifecycleServer) CheckOut(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	reservationID, operator, err := triggerSubject(ctx, request)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	result, err := server.engine.CheckOut(ctx, reservationID, operator)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	return transitionStruct(result)
}

func (server *LifecycleServer) Cancel(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	reservationID, operator, err := triggerSubject(ctx, request)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	reason := strings.TrimSpace(request.GetFields()[fieldReason].GetStringValue())
	result, err := server.engine.Cancel(ctx, reservationID, operator, reason)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	return transitionStruct(result)
}

func (server *LifecycleServer) Diagnose(ctx context.Context, request *wrapperspb.StringValue) (*structpb.Struct, error) {
	reservationID, err := booking.NewReservationID(request.GetValue())
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	diagnosis, err := server.engine.Diagnose(ctx, reservationID)
	if err != nil {
		return nil, mapToGRPCError(err)
	}
	inconsistencies := make([]any, 0, len(diagnosis.Inconsistencies))
	for _, inconsistency := range diagnosis.Inconsistencies {
		inconsistencies = append(inconsistencies, map[string]any{
			"code":   inconsistency.Code,
			"detail": inconsistency.Detail,
		})
	}
	response, err := structpb.NewStruct(map[string]any{
		fieldReservationID:   diagnosis.Reservation.ID.String(),
		"reservation_status": string(diagnosis.Reservation.Status),
		"room":               diagnosis.Room.Number.String(),
		"room_status":        string(diagnosis.Room.Status),
		"consistent":         diagnosis.Consistent(),
		"inconsistencies":    inconsistencies,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return response, nil
}

func triggerSubject(ctx context.Context, request *structpb.Struct) (booking.ReservationID, booking.OperatorID, error) {
	reservationID, err := booking.NewReservationID(request.GetFields()[fieldReservationID].GetStringValue())
	if err != nil {
		return booking.ReservationID{}, booking.OperatorID{}, err
	}
	operator, err := booking.NewOperatorID(operatorFromContext(ctx))
	if err != nil {
		return booking.ReservationID{}, booking.OperatorID{}, err
	}
	return reservationID, operator, nil
}

func operatorFromContext(ctx context.Context) string {
	incoming, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := incoming.Get(OperatorMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func transitionStruct(result booking.TransitionResult) (*structpb.Struct, error) {
	response, err := structpb.NewStruct(map[string]any{
		"success":            result.Success,
		fieldReservationID:   result.ReservationID.String(),
		"reservation_status": string(result.ReservationStatus),
		"stay_status":        string(result.StayStatus),
		"points_credited":    result.PointsCredited,
		"replayed":           result.Replayed,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return response, nil
}

func mapToGRPCError(source error) error {
	var conflictError *booking.ConflictError
	if errors.As(source, &conflictError) {
		return status.Error(codes.AlreadyExists, errorRoomUnavailable)
	}
	if errors.Is(source, booking.ErrGatewayUnavailable) {
		return status.Error(codes.Unavailable, errorGatewayUnavailable)
	}
	kind := booking.KindOf(source)
	switch kind {
	case booking.KindValidation:
		return status.Error(codes.InvalidArgument, source.Error())
	case booking.KindNotFound:
		return status.Error(codes.NotFound, source.Error())
	case booking.KindConflict:
		return status.Error(codes.AlreadyExists, source.Error())
	case booking.KindPrecondition:
		return status.Error(codes.FailedPrecondition, source.Error())
	case booking.KindBusy:
		return status.Error(codes.Unavailable, source.Error())
	default:
		return status.Error(codes.Internal, string(kind))
	}
}
