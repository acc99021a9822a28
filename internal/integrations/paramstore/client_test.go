package paramstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a simple fake implementing ssmAPI for tests.
type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func valueOutput(v string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("/text2sql/api_base_url"), Value: strPtr(v),
	}}
}

func TestLookup_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: valueOutput(" https://sql.example.com/api \n")}
	client, err := New(api)
	require.NoError(t, err)

	v, found, err := client.Lookup(context.Background(), " /text2sql/api_base_url ")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "https://sql.example.com/api", v)
	require.Equal(t, "/text2sql/api_base_url", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestLookup_NotFoundIsNotAnError(t *testing.T) {
	api := &fakeAPI{getErr: fmt.Errorf("operation error SSM: GetParameter: %w", &types.ParameterNotFound{})}
	client, err := New(api)
	require.NoError(t, err)

	v, found, err := client.Lookup(context.Background(), "/text2sql/api_base_url")
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, v)
}

func TestLookup_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p"), Value: nil}}}
	client, err := New(api)
	require.NoError(t, err)
	_, _, err = client.Lookup(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")
}

func TestLookup_ApiError(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("boom")}
	client, err := New(api)
	require.NoError(t, err)
	_, _, err = client.Lookup(context.Background(), "p")
	require.Error(t, err)
	require.ErrorContains(t, err, "boom")
}

func TestLookup_ClientNotInitialized(t *testing.T) {
	_, _, err := (&Client{}).Lookup(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not initialized")
}

func TestLookup_EmptyName(t *testing.T) {
	client, err := New(&fakeAPI{})
	require.NoError(t, err)
	_, _, err = client.Lookup(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}
