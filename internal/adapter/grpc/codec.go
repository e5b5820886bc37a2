package grpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	domain "realtime-users/internal/domain/user"
)

// Message field names. Requests and snapshots travel as google.protobuf.Struct.
const (
	fieldRoot  = "root"
	fieldPath  = "path"
	fieldName  = "name"
	fieldEmail = "email"
	fieldID    = "id"
	fieldUsers = "users"
)

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

func newWatchRequest(root string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldRoot: structpb.NewStringValue(root),
	}}
}

func newWriteRequest(path string, u domain.User) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldPath:  structpb.NewStringValue(path),
		fieldName:  structpb.NewStringValue(u.Name),
		fieldEmail: structpb.NewStringValue(u.Email),
	}}
}

func newRemoveRequest(path string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldPath: structpb.NewStringValue(path),
	}}
}

func encodeSnapshot(users []domain.User) *structpb.Struct {
	values := make([]*structpb.Value, len(users))
	for i, u := range users {
		values[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			fieldID:    structpb.NewStringValue(u.ID),
			fieldName:  structpb.NewStringValue(u.Name),
			fieldEmail: structpb.NewStringValue(u.Email),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldUsers: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

func decodeSnapshot(s *structpb.Struct) ([]domain.User, error) {
	values := s.GetFields()[fieldUsers].GetListValue().GetValues()
	users := make([]domain.User, 0, len(values))
	for i, v := range values {
		record := v.GetStructValue()
		if record == nil {
			return nil, fmt.Errorf("snapshot entry %d is not a record", i)
		}
		users = append(users, domain.User{
			ID:    stringField(record, fieldID),
			Name:  stringField(record, fieldName),
			Email: stringField(record, fieldEmail),
		})
	}
	return users, nil
}
