// Package boot holds cold-start initialization shared by the Lambda handler
// and the local CLIs: AWS client construction and secret loading.
package boot

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// defaultAPIKeyParam is where the Gemini key lives in SSM Parameter Store.
const defaultAPIKeyParam = "/clipsight/prod/gemini-api-key"

// AWS bundles the clients a binary may need. Fields are nil until the matching
// Init helper runs.
type AWS struct {
	Config aws.Config
	S3     *s3.Client
	Dynamo *dynamodb.Client
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and constructs the SSM client. S3 and
// DynamoDB clients are created on demand by WithS3/WithDynamo since the local
// CLI usually needs neither.
func InitAWS(ctx context.Context) (*AWS, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &AWS{Config: cfg, SSM: ssm.NewFromConfig(cfg)}, nil
}

// WithS3 constructs the S3 client.
func (a *AWS) WithS3() *AWS {
	a.S3 = s3.NewFromConfig(a.Config)
	return a
}

// WithDynamo constructs the DynamoDB client.
func (a *AWS) WithDynamo() *AWS {
	a.Dynamo = dynamodb.NewFromConfig(a.Config)
	return a
}

// LoadGeminiKey ensures GEMINI_API_KEY is set, reading it from SSM Parameter
// Store when the environment does not provide it. SSM_API_KEY_PARAM overrides
// the parameter name.
func (a *AWS) LoadGeminiKey(ctx context.Context) error {
	if os.Getenv("GEMINI_API_KEY") != "" {
		return nil
	}

	paramName := os.Getenv("SSM_API_KEY_PARAM")
	if paramName == "" {
		paramName = defaultAPIKeyParam
	}

	result, err := a.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("read API key from SSM parameter %s: %w", paramName, err)
	}

	os.Setenv("GEMINI_API_KEY", *result.Parameter.Value)
	log.Info().Str("param", paramName).Msg("Gemini API key loaded from SSM Parameter Store")
	return nil
}
