// Package secrets resolves InfluxDB credentials from AWS at startup.
//
// The gateway never reads credentials mid-request: resolution happens
// once before the first outbound call, and the resulting bundle is
// read-only configuration from then on. Two indirections are supported,
// Secrets Manager (JSON bundle) and SSM Parameter Store (token only),
// selected by configuration.
//
// Resolution failures are configuration faults, not upstream faults:
// startup aborts rather than serving requests that can only fail.
package secrets
