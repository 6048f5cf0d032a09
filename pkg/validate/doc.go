/*
Package validate implements the schema-validator contract pkg/store depends
on: Validate(value) -> (value, errors). The store depends only on the
Validator interface; Schema and Compile here are one concrete, declarative
implementation (required fields, leaf kinds, defaults) and not the only
one the store can be wired to.
*/
package validate
