/*
Package config loads Strata's process configuration from a YAML file, with
STRATA_-prefixed environment variables overriding individual fields. It
follows the teacher's YAML-resource-file style (cmd/warren/apply.go) but
loads one fixed struct instead of a discriminated-union resource, since
this config is for one process's own settings rather than a cluster API
object.
*/
package config
