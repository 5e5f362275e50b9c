package main

import "fmt"

// arrayFlags collects every occurrence of a repeatable flag
type arrayFlags []string

func (f *arrayFlags) String() string {
	return fmt.Sprint([]string(*f))
}

func (f *arrayFlags) Set(value string) error {
	*f = append(*f, value)
	return nil
}
