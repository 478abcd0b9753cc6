package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
	"github.com/BuzzLyutic/serverless-todo/internal/model"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type DynamoStore struct {
	client DynamoAPI
	table  string
	logger *zap.Logger
}

func NewDynamoStore(client DynamoAPI, table string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
		logger: logger,
	}
}

// NewDynamoClient loads the default AWS config chain. A non-empty endpoint
// points the client at DynamoDB Local or another compatible server.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (s *DynamoStore) Put(ctx context.Context, item Item) error {
	av, err := attributevalue.MarshalMap(map[string]string(item))
	if err != nil {
		return storeErr("put", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(keys.AttrPK))).
		Build()
	if err != nil {
		return storeErr("put", fmt.Errorf("failed to build expression: %w", err))
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	return s.mapError("put", err, ErrorConflict)
}

func (s *DynamoStore) Query(ctx context.Context, q Query) (QueryResult, error) {
	pkAttr := keys.AttrPK
	if q.Index == DueDateIndex {
		pkAttr = keys.AttrGSI1PK
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(pkAttr).Equal(expression.Value(q.PartitionKey))).
		Build()
	if err != nil {
		return QueryResult{}, storeErr("query", fmt.Errorf("failed to build expression: %w", err))
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(q.Forward),
	}
	if q.Index == DueDateIndex {
		input.IndexName = aws.String(keys.IndexGSI1)
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(q.Limit)
	}
	if q.StartKey != nil {
		startKey, err := attributevalue.MarshalMap(map[string]string(q.StartKey))
		if err != nil {
			return QueryResult{}, storeErr("query", err)
		}
		input.ExclusiveStartKey = startKey
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return QueryResult{}, s.mapError("query", err, nil)
	}

	var res QueryResult
	res.Items = make([]Item, 0, len(out.Items))
	for _, raw := range out.Items {
		item, err := decodeItem(raw)
		if err != nil {
			return QueryResult{}, err
		}
		res.Items = append(res.Items, item)
	}
	if len(out.LastEvaluatedKey) > 0 {
		var last map[string]string
		if err := attributevalue.UnmarshalMap(out.LastEvaluatedKey, &last); err != nil {
			return QueryResult{}, storeErr("query", err)
		}
		res.LastKey = Key(last)
	}

	s.logger.Debug("query",
		zap.String("partition", q.PartitionKey),
		zap.Int("index", int(q.Index)),
		zap.Int("items", len(res.Items)),
		zap.Bool("more", res.LastKey != nil),
	)
	return res, nil
}

func (s *DynamoStore) Update(ctx context.Context, m Mutation) (Item, error) {
	if err := checkMutation(m); err != nil {
		return nil, storeErr("update", err)
	}
	if len(m.Set) == 0 {
		return nil, storeErr("update", errors.New("empty mutation"))
	}

	// sorted for stable expressions
	names := make([]string, 0, len(m.Set))
	for name := range m.Set {
		names = append(names, name)
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(m.Set[name]))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(keys.AttrPK))).
		Build()
	if err != nil {
		return nil, storeErr("update", fmt.Errorf("failed to build expression: %w", err))
	}

	key, err := primaryKey(m.Key)
	if err != nil {
		return nil, storeErr("update", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, s.mapError("update", err, ErrorNotFound)
	}
	return decodeItem(out.Attributes)
}

func (s *DynamoStore) Delete(ctx context.Context, k Key) error {
	key, err := primaryKey(k)
	if err != nil {
		return storeErr("delete", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(keys.AttrPK))).
		Build()
	if err != nil {
		return storeErr("delete", fmt.Errorf("failed to build expression: %w", err))
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      key,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	return s.mapError("delete", err, ErrorNotFound)
}

// mapError turns a failed condition check into onCondition when it is set.
func (s *DynamoStore) mapError(op string, err, onCondition error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if onCondition != nil && errors.As(err, &ccf) {
		return onCondition
	}
	s.logger.Error("dynamodb call failed", zap.String("op", op), zap.String("table", s.table), zap.Error(err))
	return storeErr(op, err)
}

func primaryKey(k Key) (map[string]types.AttributeValue, error) {
	pk, sk := k[keys.AttrPK], k[keys.AttrSK]
	if pk == "" || sk == "" {
		return nil, errMissingKey
	}
	return map[string]types.AttributeValue{
		keys.AttrPK: &types.AttributeValueMemberS{Value: pk},
		keys.AttrSK: &types.AttributeValueMemberS{Value: sk},
	}, nil
}

func decodeItem(raw map[string]types.AttributeValue) (Item, error) {
	var item map[string]string
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCorruptRecord, err)
	}
	return Item(item), nil
}
