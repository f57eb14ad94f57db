package transport

// Client-facing messages
const (
	MsgRegistered      = "User Registered Successfully"
	MsgLoggedIn        = "User logged in successfully"
	MsgBadCredentials  = "Invalid email or Password"
	MsgLoggedOut       = "User successfully logged out"
	MsgTokenRefreshed  = "Token refreshed successfully"
	MsgUserRetrieved   = "Authenticated user data retrieved successfully"
	MsgUserNotFound    = "User not found"
	MsgProfileUpdated  = "Profile updated successfully"
	MsgNoCategories    = "No categories found"
	MsgCategoryCreated = "Category created successfully"
	MsgCategoryUpdated = "Category updated successfully"
	MsgCategoryDeleted = "Category deleted successfully"
	MsgCategoryMissing = "Category not found"

	MsgNoProducts         = "No products found"
	MsgNoPopular          = "No Popular Products"
	MsgNoCategoryProducts = "No Products For This Category"
	MsgProductCreated     = "Product created successfully"
	MsgProductUpdated     = "Product updated successfully"
	MsgProductDeleted     = "Product deleted successfully"
	MsgProductRetrieved   = "Product Retrieved Successfully"
	MsgProductMissing     = "Product not found"

	MsgNoFavorites      = "No Favorite Products"
	MsgFavoriteAdded    = "Product added to favorites successfully"
	MsgFavoriteRemoved  = "Product removed from favorites successfully"
	MsgAlreadyFavorited = "Product already added to favorites"
	MsgNotInFavorites   = "Product is not in favorites"
)
