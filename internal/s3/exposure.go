package s3

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Inspector fetches the ACL and policy evidence the exposure classifier
// needs. Bucket policy status is fetched once per bucket per run; exposure is
// always recomputed per scan, never cached across runs.
type Inspector struct {
	client *Client

	mu       sync.Mutex
	policies map[string]policyEntry
}

type policyEntry struct {
	status *PolicyStatus
	err    error
}

// NewInspector creates a new exposure Inspector.
func NewInspector(client *Client) *Inspector {
	return &Inspector{
		client:   client,
		policies: make(map[string]policyEntry),
	}
}

// ObjectACL fetches the grant list for one object.
func (i *Inspector) ObjectACL(ctx context.Context, bucket, key string) (*ObjectACL, error) {
	var result *s3.GetObjectAclOutput
	err := i.client.WithRetry(ctx, func() error {
		var err error
		result, err = i.client.s3Client.GetObjectAcl(ctx, &s3.GetObjectAclInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return nil, classifyError("get object acl", bucket, key, err)
	}

	acl := &ObjectACL{}
	for _, g := range result.Grants {
		grant := Grant{Permission: string(g.Permission)}
		if g.Grantee != nil {
			if g.Grantee.URI != nil {
				grant.GranteeURI = *g.Grantee.URI
			}
			if g.Grantee.ID != nil {
				grant.GranteeID = *g.Grantee.ID
			}
		}
		acl.Grants = append(acl.Grants, grant)
	}
	return acl, nil
}

// BucketPolicyStatus returns the bucket's policy evaluation, cached for the
// duration of the run. A bucket without a policy is a non-public policy
// status, not an error.
func (i *Inspector) BucketPolicyStatus(ctx context.Context, bucket string) (*PolicyStatus, error) {
	i.mu.Lock()
	if entry, ok := i.policies[bucket]; ok {
		i.mu.Unlock()
		return entry.status, entry.err
	}
	i.mu.Unlock()

	status, err := i.fetchPolicyStatus(ctx, bucket)

	i.mu.Lock()
	i.policies[bucket] = policyEntry{status: status, err: err}
	i.mu.Unlock()

	return status, err
}

func (i *Inspector) fetchPolicyStatus(ctx context.Context, bucket string) (*PolicyStatus, error) {
	var result *s3.GetBucketPolicyStatusOutput
	err := i.client.WithRetry(ctx, func() error {
		var err error
		result, err = i.client.s3Client.GetBucketPolicyStatus(ctx, &s3.GetBucketPolicyStatusInput{
			Bucket: aws.String(bucket),
		})
		return err
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchBucketPolicy") {
			return &PolicyStatus{IsPublic: false}, nil
		}
		return nil, classifyError("get bucket policy status", bucket, "", err)
	}

	status := &PolicyStatus{}
	if result.PolicyStatus != nil && result.PolicyStatus.IsPublic != nil {
		status.IsPublic = *result.PolicyStatus.IsPublic
	}
	return status, nil
}

// ClassifyObject fetches both evidence sources for one object and derives its
// exposure status. Fetch failures yield UNKNOWN rather than an error; the
// returned error is diagnostic only.
func (i *Inspector) ClassifyObject(ctx context.Context, bucket, key string) (ExposureStatus, error) {
	acl, aclErr := i.ObjectACL(ctx, bucket, key)
	policy, policyErr := i.BucketPolicyStatus(ctx, bucket)

	status := Classify(acl, policy)

	if aclErr != nil {
		return status, aclErr
	}
	return status, policyErr
}
