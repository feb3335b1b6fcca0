package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/s3sentry/internal/report"
	"github.com/ppiankov/s3sentry/internal/s3"
	"github.com/spf13/cobra"
)

var listFlags struct {
	bucket     string
	folder     string
	awsProfile string
	awsRegion  string
	jsonOutput bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List buckets or browse a bucket as a folder tree",
}

var listBucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List all buckets in the account",
	RunE:  runListBuckets,
}

var listTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print a bucket's objects as a folder tree",
	RunE:  runListTree,
}

func init() {
	for _, cmd := range []*cobra.Command{listBucketsCmd, listTreeCmd} {
		cmd.Flags().StringVar(&listFlags.awsProfile, "aws-profile", "", "AWS profile to use")
		cmd.Flags().StringVar(&listFlags.awsRegion, "aws-region", "", "AWS region (defaults to profile default)")
	}

	listBucketsCmd.Flags().BoolVar(&listFlags.jsonOutput, "json-output", false, "Emit bucket names as JSON")

	listTreeCmd.Flags().StringVarP(&listFlags.bucket, "bucket", "b", "", "Bucket to browse")
	listTreeCmd.Flags().StringVar(&listFlags.folder, "folder", "", "Restrict the tree to keys under this prefix")

	listCmd.AddCommand(listBucketsCmd)
	listCmd.AddCommand(listTreeCmd)
}

func runListBuckets(cmd *cobra.Command, args []string) error {
	applyConfigToListFlags(cmd)
	ctx := context.Background()

	client, err := s3.NewClient(ctx, listFlags.awsProfile, listFlags.awsRegion)
	if err != nil {
		return enhanceError("S3 client initialization", err, 1)
	}

	buckets, err := s3.NewLister(client).ListBuckets(ctx)
	if err != nil {
		return enhanceError("bucket listing", err, 1)
	}

	if listFlags.jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(buckets)
	}

	for _, name := range buckets {
		fmt.Println(name)
	}
	return nil
}

func runListTree(cmd *cobra.Command, args []string) error {
	applyConfigToListFlags(cmd)
	if listFlags.bucket == "" {
		return fmt.Errorf("--bucket is required")
	}
	ctx := context.Background()

	client, err := s3.NewClient(ctx, listFlags.awsProfile, listFlags.awsRegion)
	if err != nil {
		return enhanceError("S3 client initialization", err, 1)
	}

	var objects []s3.Object
	it := s3.NewLister(client).Objects(listFlags.bucket, listFlags.folder)
	for it.Next(ctx) {
		objects = append(objects, it.Object())
	}
	if err := it.Err(); err != nil {
		return enhanceError("object listing", err, 1)
	}

	report.RenderTree(os.Stdout, report.BuildTree(listFlags.bucket, objects))
	return nil
}

func applyConfigToListFlags(cmd *cobra.Command) {
	if !cmd.Flags().Lookup("aws-profile").Changed && cfg.Profile != "" {
		listFlags.awsProfile = cfg.Profile
	}
	if !cmd.Flags().Lookup("aws-region").Changed && cfg.Region != "" {
		listFlags.awsRegion = cfg.Region
	}
}
