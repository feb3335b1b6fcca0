package s3

import "time"

// Object describes one stored object as produced by the Lister. It is
// immutable once listed; downstream stages treat it as read-only.
type Object struct {
	Bucket       string     `json:"bucket"`
	Key          string     `json:"key"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	StorageClass string     `json:"storage_class,omitempty"`
}

// ExposureStatus is the computed public/private classification of an object.
type ExposureStatus string

const (
	ExposurePublic  ExposureStatus = "PUBLIC"
	ExposurePrivate ExposureStatus = "PRIVATE"
	// ExposureUnknown means ACL/policy metadata could not be fetched. It is
	// reported distinctly and never coerced to PRIVATE.
	ExposureUnknown ExposureStatus = "UNKNOWN"
)

// Grant is one entry from an object's access control list.
type Grant struct {
	GranteeURI string `json:"grantee_uri,omitempty"`
	GranteeID  string `json:"grantee_id,omitempty"`
	Permission string `json:"permission"`
}

// ObjectACL is the fetched grant list for a single object.
type ObjectACL struct {
	Grants []Grant `json:"grants"`
}

const (
	allUsersURI           = "http://acs.amazonaws.com/groups/global/AllUsers"
	authenticatedUsersURI = "http://acs.amazonaws.com/groups/global/AuthenticatedUsers"
)

// PublicRead reports whether the ACL grants read access to everyone or to
// all authenticated users.
func (a *ObjectACL) PublicRead() bool {
	for _, g := range a.Grants {
		if g.GranteeURI != allUsersURI && g.GranteeURI != authenticatedUsersURI {
			continue
		}
		switch g.Permission {
		case "READ", "FULL_CONTROL":
			return true
		}
	}
	return false
}

// PolicyStatus is the bucket-level policy evaluation result.
type PolicyStatus struct {
	IsPublic bool `json:"is_public"`
}

// Classify derives an exposure status from fetched evidence. A nil ACL or
// policy means that source could not be fetched. Precedence, first match wins:
//
//  1. object ACL grants a public principal -> PUBLIC
//  2. bucket policy is public -> PUBLIC (on S3, policies and ACLs are
//     additive grants; an object ACL cannot revoke a public bucket policy)
//  3. both sources fetched and neither grants public access -> PRIVATE
//  4. anything less than full evidence -> UNKNOWN
func Classify(acl *ObjectACL, policy *PolicyStatus) ExposureStatus {
	if acl != nil && acl.PublicRead() {
		return ExposurePublic
	}
	if policy != nil && policy.IsPublic {
		return ExposurePublic
	}
	if acl != nil && policy != nil {
		return ExposurePrivate
	}
	return ExposureUnknown
}
