// Package cli implements credctl, the provisioning tool for credgate.
//
// Commands:
//
//	add <identifier>      create an account, prompting for its secret
//	passwd <identifier>   replace the secret of an existing account
//	check <identifier>    log in through the gRPC endpoint and report the outcome
//
// add and passwd write to the database named by the server configuration,
// so they accept the server's config file, environment and flags. check
// only needs the gRPC endpoint (-e). When stdin is not a terminal the
// secret is read from the first line of stdin instead of a prompt.
package cli
