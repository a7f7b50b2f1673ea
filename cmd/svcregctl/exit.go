package main

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

func exitWith(code int, message string) exitError {
	return exitError{code: code, message: message}
}
