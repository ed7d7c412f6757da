package protocol

// Wire text of the session protocol. Every menu and notice ends with a line
// terminator; prompts that wait for input end with the ">> " cursor instead.
//
// Registration answers with RegistrationSuccessful or UsernameExists, and
// additionally with InvalidCredentials when the username or password is
// empty. InvalidRecipient and InternalError are extensions too: the first
// answers a non-numeric recipient id, the second a storage failure.
const (
	MainMenu = "1. Login\n" +
		"2. Register\n" +
		"3. Exit\n"
	UserMenu = "1. Send message\n" +
		"2. Show messages\n" +
		"3. Exit\n"

	PromptUsername  = "Enter username: \n>> "
	PromptPassword  = "Enter password: \n>> "
	PromptRecipient = "Enter recipient id: \n>> "
	PromptMessage   = "Enter message: \n>> "

	LoginSuccessful        = "Login successful\n"
	LoginFailed            = "Login failed\n"
	UsernameExists         = "Username already exists\n"
	RegistrationSuccessful = "Registration successful\n"
	InvalidChoice          = "Invalid choice\n"
	InvalidRecipient       = "Invalid recipient id\n"
	InvalidCredentials     = "Invalid username or password\n"
	InternalError          = "Internal error\n"

	// MessageLine formats one entry of the show output.
	MessageLine = "From %s: %s\n"
)

const (
	choiceFirst  = "1"
	choiceSecond = "2"
	choiceExit   = "3"
)
