package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-dev/hostlink-sdk/go/application/transport"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
	"github.com/hostlink-dev/hostlink-sdk/go/future"
	"github.com/hostlink-dev/hostlink-sdk/go/internal/testutil"
)

type outcome[T any] struct {
	value T
	err   error
	calls int
}

func recordCallback[T any]() (Callback[T], *outcome[T], chan struct{}) {
	o := &outcome[T]{}
	done := make(chan struct{})
	return func(err error, v T) {
		o.err = err
		o.value = v
		o.calls++
		close(done)
	}, o, done
}

func TestInvocation_ZeroValueIsFuture(t *testing.T) {
	var inv Invocation[int]
	assert.False(t, inv.IsCallback())
	assert.False(t, Future[int]().IsCallback())
	assert.False(t, WithCallback[int](nil).IsCallback())
}

func TestBind_ReturnsSameFuture(t *testing.T) {
	f := future.New[int]()
	cb, _, _ := recordCallback[int]()

	assert.Same(t, f, Future[int]().Bind(f))
	assert.Same(t, f, WithCallback(cb).Bind(f))
}

func TestBind_Equivalence(t *testing.T) {
	hostErr := &sdkerrors.HostError{APIName: "files.open", Message: "denied", Code: entities.ErrorCodePermissionDenied}

	tests := []struct {
		name  string
		value string
		err   error
	}{
		{name: "success", value: "ok"},
		{name: "host error", err: hostErr},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, got, done := recordCallback[string]()
			f := WithCallback(cb).Bind(future.New[string]())

			if tt.err != nil {
				f.Reject(tt.err)
			} else {
				f.Resolve(tt.value)
			}
			testutil.RequireClosed(t, done, time.Second)

			v, err := f.Await(context.Background())
			assert.Equal(t, tt.value, v)
			assert.Equal(t, tt.value, got.value)
			assert.Equal(t, 1, got.calls)
			if tt.err == nil {
				assert.NoError(t, err)
				assert.NoError(t, got.err)
				return
			}
			assert.Same(t, tt.err, err)
			assert.Same(t, tt.err, got.err, "the callback sees the identical error")
			assert.Equal(t, sdkerrors.ToErrorDetail(err), sdkerrors.ToErrorDetail(got.err))
		})
	}
}

func TestCall(t *testing.T) {
	t.Run("fatal errors are synchronous", func(t *testing.T) {
		cb, got, _ := recordCallback[int]()
		f, err := Call(WithCallback(cb), func() (*future.Future[int], error) {
			return nil, &sdkerrors.NotInitializedError{Component: "runtime"}
		})
		assert.Nil(t, f)
		assert.ErrorIs(t, err, &sdkerrors.NotInitializedError{})
		assert.Equal(t, 0, got.calls)
	})

	t.Run("per call errors reject", func(t *testing.T) {
		cb, got, done := recordCallback[int]()
		notSupported := sdkerrors.NewNotSupported("location")
		f, err := Call(WithCallback(cb), func() (*future.Future[int], error) {
			return nil, notSupported
		})
		require.NoError(t, err)
		testutil.RequireClosed(t, done, time.Second)

		_, awaitErr := f.Await(context.Background())
		assert.Same(t, notSupported, awaitErr)
		assert.Same(t, notSupported, got.err)
	})

	t.Run("success", func(t *testing.T) {
		f, err := Call(Future[int](), func() (*future.Future[int], error) {
			return future.Resolved(5), nil
		})
		require.NoError(t, err)
		v, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, v)
	})
}

func reply(args ...string) *future.Future[transport.Reply] {
	raw := make([]json.RawMessage, len(args))
	for i, a := range args {
		raw[i] = json.RawMessage(a)
	}
	return future.Resolved(transport.Reply{APIName: "test.op", Args: raw})
}

func TestUnwrap(t *testing.T) {
	v, err := Unwrap[map[string]int](reply(`{"a":1}`)).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, v)

	_, err = Unwrap[int](reply(`"nope"`)).Await(context.Background())
	testutil.RequireErrorAs[*sdkerrors.WireFormatError](t, err)
}

func TestSdkErrorResult(t *testing.T) {
	t.Run("result", func(t *testing.T) {
		v, err := SdkErrorResult[string](reply(`null`, `"value"`)).Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	})

	t.Run("error slot", func(t *testing.T) {
		_, err := SdkErrorResult[string](reply(`{"code":8000,"message":"user cancelled"}`, `null`)).Await(context.Background())
		hostErr := testutil.RequireErrorAs[*sdkerrors.HostError](t, err)
		assert.Equal(t, entities.ErrorCodeUserAbort, hostErr.Code)
		assert.Equal(t, "user cancelled", hostErr.Message)
		assert.Equal(t, "test.op", hostErr.APIName)
	})

	t.Run("rejection passes through", func(t *testing.T) {
		sentinel := &sdkerrors.DisconnectedError{APIName: "test.op"}
		_, err := SdkErrorResult[string](future.Rejected[transport.Reply](sentinel)).Await(context.Background())
		assert.Same(t, sentinel, err)
	})
}

func TestStatusAndReason(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "success", args: []string{`true`}},
		{name: "failure with reason", args: []string{`false`, `"not now"`}, wantErr: "not now"},
		{name: "failure without reason", args: []string{`false`}, wantErr: "default failure"},
		{name: "empty reason", args: []string{`false`, `""`}, wantErr: "default failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StatusAndReason(reply(tt.args...), "default failure").Await(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			hostErr := testutil.RequireErrorAs[*sdkerrors.HostError](t, err)
			assert.Equal(t, tt.wantErr, hostErr.Message)
		})
	}
}

func TestRaw(t *testing.T) {
	v, err := Raw(reply(`{"x":true}`)).Await(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":true}`, string(v))

	_, err = Raw(reply()).Await(context.Background())
	assert.Error(t, err)
}
